package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	jsoniter "github.com/json-iterator/go"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// keyColumns names the column used as document id for tables whose rows
// are not keyed by "id".
var keyColumns = map[string]string{
	"app_settings": "key",
}

// uniqueColumns names a column whose value no two rows of the table may
// share. The SQL store enforces these with constraints.
var uniqueColumns = map[string]string{
	"sources": "name",
}

// Client serves gateway.Tables from Cloud Firestore: one collection per
// table, one document per row.
type Client struct {
	client *firestore.Client
}

func New(ctx context.Context, projectID string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Select(ctx context.Context, q gateway.Query, dest any) error {
	if err := gateway.CheckSliceDest(dest); err != nil {
		return err
	}
	rows, err := c.matching(ctx, q)
	if err != nil {
		return err
	}
	return decodeRows(rows, dest)
}

// Insert creates a document. Rows without an id get a generated one, and
// created_at is stamped when absent.
func (c *Client) Insert(ctx context.Context, table string, payload any, dest any) error {
	data, err := toDocument(payload)
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}

	col := c.client.Collection(table)
	docRef := col.NewDoc()
	if id, ok := data[keyColumn(table)].(string); ok && id != "" {
		docRef = col.Doc(id)
	}
	delete(data, "id")
	if _, ok := data["created_at"]; !ok {
		data["created_at"] = time.Now().UTC()
	}

	if err := c.create(ctx, table, docRef, data); err != nil {
		if errors.Is(err, gateway.ErrConflict) {
			return err
		}
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%s/%s: %w", table, docRef.ID, gateway.ErrConflict)
		}
		return fmt.Errorf("failed to create %s row: %w", table, err)
	}

	if dest == nil {
		return nil
	}
	data["id"] = docRef.ID
	return decodeRow(data, dest)
}

// create writes a new document. Create fails if the document already
// exists; for tables with a unique column the check and the write share a
// transaction.
func (c *Client) create(ctx context.Context, table string, docRef *firestore.DocumentRef, data map[string]any) error {
	column, value, ok := uniqueValue(table, data)
	if !ok {
		_, err := docRef.Create(ctx, data)
		return err
	}
	return c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(docRef.Parent.Where(column, "==", value).Limit(1)).GetAll()
		if err != nil {
			return fmt.Errorf("check %s %s: %w", table, column, err)
		}
		if len(docs) > 0 {
			return fmt.Errorf("%s %s %q: %w", table, column, value, gateway.ErrConflict)
		}
		return tx.Create(docRef, data)
	})
}

func (c *Client) Update(ctx context.Context, q gateway.Query, payload any) error {
	if len(q.Filters) == 0 {
		return fmt.Errorf("refusing unfiltered update of %s", q.Table)
	}
	data, err := toDocument(payload)
	if err != nil {
		return fmt.Errorf("encode %s update: %w", q.Table, err)
	}
	delete(data, "id")

	refs, err := c.matchingRefs(ctx, q)
	if err != nil {
		return err
	}
	if column, value, ok := uniqueValue(q.Table, data); ok {
		taken, err := c.client.Collection(q.Table).Where(column, "==", value).Documents(ctx).GetAll()
		if err != nil {
			return fmt.Errorf("check %s %s: %w", q.Table, column, err)
		}
		if clashes(taken, refs) {
			return fmt.Errorf("%s %s %q: %w", q.Table, column, value, gateway.ErrConflict)
		}
	}
	for _, ref := range refs {
		if _, err := ref.Set(ctx, data, firestore.MergeAll); err != nil {
			return fmt.Errorf("failed to update %s/%s: %w", q.Table, ref.ID, err)
		}
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, q gateway.Query) error {
	if len(q.Filters) == 0 {
		return fmt.Errorf("refusing unfiltered delete of %s", q.Table)
	}
	refs, err := c.matchingRefs(ctx, q)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	bulkWriter := c.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bulkWriter.Delete(ref)
		if err != nil {
			slog.Warn("Error queueing delete", "table", q.Table, "id", ref.ID, "error", err)
			continue
		}
		jobs = append(jobs, job)
	}
	bulkWriter.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", q.Table, err)
		}
	}
	return nil
}

// matching returns the rows of q, each with its document id under the
// table's key column.
func (c *Client) matching(ctx context.Context, q gateway.Query) ([]map[string]any, error) {
	key := keyColumn(q.Table)
	col := c.client.Collection(q.Table)

	if id, rest, ok := splitKeyFilter(q.Filters, key); ok {
		doc, err := col.Doc(id).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to get %s/%s: %w", q.Table, id, err)
		}
		row := withKey(doc, key)
		if !rowMatches(row, rest) {
			return nil, nil
		}
		return []map[string]any{row}, nil
	}

	iter := buildQuery(col.Query, q).Documents(ctx)
	defer iter.Stop()

	var rows []map[string]any
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate %s: %w", q.Table, err)
		}
		rows = append(rows, withKey(doc, key))
	}
	return rows, nil
}

func (c *Client) matchingRefs(ctx context.Context, q gateway.Query) ([]*firestore.DocumentRef, error) {
	key := keyColumn(q.Table)
	col := c.client.Collection(q.Table)
	if id, rest, ok := splitKeyFilter(q.Filters, key); ok && len(rest) == 0 {
		return []*firestore.DocumentRef{col.Doc(id)}, nil
	}
	rows, err := c.matching(ctx, q)
	if err != nil {
		return nil, err
	}
	refs := make([]*firestore.DocumentRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, col.Doc(fmt.Sprint(row[key])))
	}
	return refs, nil
}

func buildQuery(fq firestore.Query, q gateway.Query) firestore.Query {
	for _, f := range q.Filters {
		fq = fq.Where(f.Column, "==", f.Value)
	}
	if q.Order != nil {
		dir := firestore.Desc
		if q.Order.Ascending {
			dir = firestore.Asc
		}
		fq = fq.OrderBy(q.Order.Column, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq
}

func keyColumn(table string) string {
	if k, ok := keyColumns[table]; ok {
		return k
	}
	return "id"
}

// uniqueValue returns the unique column of table and its value in data.
// Blank values are not checked.
func uniqueValue(table string, data map[string]any) (string, string, bool) {
	column, ok := uniqueColumns[table]
	if !ok {
		return "", "", false
	}
	value, ok := data[column].(string)
	if !ok || value == "" {
		return "", "", false
	}
	return column, value, true
}

// clashes reports whether any taken document is outside the rows being
// updated. Renaming a row to its own name is not a clash.
func clashes(taken []*firestore.DocumentSnapshot, refs []*firestore.DocumentRef) bool {
	if len(refs) == 0 {
		return false
	}
	own := make(map[string]bool, len(refs))
	for _, ref := range refs {
		own[ref.ID] = true
	}
	for _, doc := range taken {
		if !own[doc.Ref.ID] {
			return true
		}
	}
	return false
}

// splitKeyFilter pulls the key-column filter out so it can be served by
// a direct document lookup.
func splitKeyFilter(filters []gateway.Filter, key string) (string, []gateway.Filter, bool) {
	for i, f := range filters {
		if f.Column == key {
			rest := make([]gateway.Filter, 0, len(filters)-1)
			rest = append(rest, filters[:i]...)
			rest = append(rest, filters[i+1:]...)
			return fmt.Sprint(f.Value), rest, true
		}
	}
	return "", nil, false
}

func withKey(doc *firestore.DocumentSnapshot, key string) map[string]any {
	row := doc.Data()
	if row == nil {
		row = make(map[string]any)
	}
	row[key] = doc.Ref.ID
	return row
}

func rowMatches(row map[string]any, filters []gateway.Filter) bool {
	for _, f := range filters {
		if fmt.Sprint(row[f.Column]) != fmt.Sprint(f.Value) {
			return false
		}
	}
	return true
}

// toDocument converts a payload into Firestore fields through its JSON
// encoding, so rows carry the same column names as in the SQL store.
func toDocument(payload any) (map[string]any, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func decodeRows(rows []map[string]any, dest any) error {
	if rows == nil {
		rows = []map[string]any{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}

func decodeRow(row map[string]any, dest any) error {
	b, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}
