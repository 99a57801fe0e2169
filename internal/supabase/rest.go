package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	jsoniter "github.com/json-iterator/go"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
)

const restPath = "/rest/v1/"

func (c *Client) Select(ctx context.Context, q gateway.Query, dest any) error {
	if err := gateway.CheckSliceDest(dest); err != nil {
		return err
	}
	params := filterParams(q)
	params.Set("select", "*")
	if q.Order != nil {
		dir := "desc"
		if q.Order.Ascending {
			dir = "asc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprint(q.Limit))
	}
	return c.do(ctx, request{
		op:     "select",
		method: http.MethodGet,
		path:   restPath + q.Table,
		query:  params,
	}, dest)
}

func (c *Client) Insert(ctx context.Context, table string, payload any, dest any) error {
	var rows []jsoniter.RawMessage
	err := c.do(ctx, request{
		op:      "insert",
		method:  http.MethodPost,
		path:    restPath + table,
		body:    payload,
		headers: map[string]string{"Prefer": "return=representation"},
	}, &rows)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if len(rows) == 0 {
		return fmt.Errorf("insert into %s returned no row", table)
	}
	return json.Unmarshal(rows[0], dest)
}

func (c *Client) Update(ctx context.Context, q gateway.Query, payload any) error {
	if len(q.Filters) == 0 {
		return fmt.Errorf("refusing unfiltered update of %s", q.Table)
	}
	return c.do(ctx, request{
		op:      "update",
		method:  http.MethodPatch,
		path:    restPath + q.Table,
		query:   filterParams(q),
		body:    payload,
		headers: map[string]string{"Prefer": "return=minimal"},
	}, nil)
}

func (c *Client) Delete(ctx context.Context, q gateway.Query) error {
	if len(q.Filters) == 0 {
		return fmt.Errorf("refusing unfiltered delete of %s", q.Table)
	}
	return c.do(ctx, request{
		op:     "delete",
		method: http.MethodDelete,
		path:   restPath + q.Table,
		query:  filterParams(q),
	}, nil)
}

// filterParams renders equality filters in PostgREST syntax, col=eq.value.
func filterParams(q gateway.Query) url.Values {
	params := url.Values{}
	for _, f := range q.Filters {
		params.Add(f.Column, "eq."+fmt.Sprint(f.Value))
	}
	return params
}
