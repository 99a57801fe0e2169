package views

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/models"
	"github.com/pauljones0/commodity-tracker/internal/util"
)

type SettingsTab string

const (
	TabAI      SettingsTab = "ai"
	TabSources SettingsTab = "sources"
)

type SettingRow struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	Secret      bool   `json:"secret"`
	Dirty       bool   `json:"dirty"`
}

type SettingsView struct {
	Tab                 SettingsTab     `json:"tab"`
	Settings            []SettingRow    `json:"settings"`
	Sources             []models.Source `json:"sources"`
	PendingSourceDelete string          `json:"pending_source_delete,omitempty"`
}

// Settings is the admin page: AI settings edited through a buffer, and
// the source list.
type Settings struct {
	tables gateway.Tables
	notify Notifier
	now    func() time.Time

	mu            sync.Mutex
	tab           SettingsTab
	settings      []models.AppSetting
	buffer        map[string]string
	sources       []models.Source
	pendingSource string
}

func NewSettings(tables gateway.Tables, notify Notifier) *Settings {
	return &Settings{
		tables: tables,
		notify: notify,
		now:    time.Now,
		tab:    TabAI,
		buffer: make(map[string]string),
	}
}

// Load reads both tabs.
func (s *Settings) Load(ctx context.Context) error {
	return multierr.Append(s.LoadSettings(ctx), s.LoadSources(ctx))
}

// LoadSettings replaces the rows and resets the edit buffer to them.
func (s *Settings) LoadSettings(ctx context.Context) error {
	rows, err := gateway.List[models.AppSetting](ctx, s.tables, gateway.From(models.TableAppSettings).OrderBy("key", true))
	if err != nil {
		logx.FromContext(ctx).Error("Failed to load settings", logx.Error(err))
		return fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = rows
	s.buffer = make(map[string]string, len(rows))
	for _, row := range rows {
		s.buffer[row.Key] = string(row.Value)
	}
	return nil
}

func (s *Settings) LoadSources(ctx context.Context) error {
	rows, err := gateway.List[models.Source](ctx, s.tables, gateway.From(models.TableSources).OrderBy("name", true))
	if err != nil {
		logx.FromContext(ctx).Error("Failed to load sources", logx.Error(err))
		return fmt.Errorf("load sources: %w", err)
	}
	s.mu.Lock()
	s.sources = rows
	s.mu.Unlock()
	return nil
}

func (s *Settings) SetTab(tab SettingsTab) error {
	if tab != TabAI && tab != TabSources {
		return fmt.Errorf("unknown settings tab %q", tab)
	}
	s.mu.Lock()
	s.tab = tab
	s.mu.Unlock()
	return nil
}

// SetValue edits the buffered value of a loaded setting.
func (s *Settings) SetValue(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buffer[key]; !ok {
		return fmt.Errorf("setting %q: %w", key, gateway.ErrNotFound)
	}
	s.buffer[key] = value
	return nil
}

// Save writes every buffered value that differs from its row, one key
// at a time. A failing key does not stop the others; all failures are
// reported together.
func (s *Settings) Save(ctx context.Context) error {
	s.mu.Lock()
	changed := lo.FilterMap(s.settings, func(row models.AppSetting, _ int) (SettingRow, bool) {
		v := s.buffer[row.Key]
		return SettingRow{Key: row.Key, Value: v}, v != string(row.Value)
	})
	s.mu.Unlock()

	logger := logx.FromContext(ctx)
	var (
		errs     error
		messages []string
	)
	for _, row := range changed {
		q := gateway.From(models.TableAppSettings).Eq("key", row.Key)
		payload := map[string]any{"value": row.Value, "updated_at": s.now().UTC()}
		if err := s.tables.Update(ctx, q, payload); err != nil {
			logger.Error("Failed to save setting", "key", row.Key, logx.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("save %s: %w", row.Key, err))
			messages = append(messages, row.Key+": "+messageOr(err, "update failed"))
		}
	}

	if errs != nil {
		s.notify.Error(strings.Join(messages, "; "))
		return errs
	}
	s.notify.Success("Settings saved successfully!")
	return s.LoadSettings(ctx)
}

// AddSource inserts a source. A blank name is ignored; a blank or zero
// rating becomes the default and the rating is clamped to 0..10.
func (s *Settings) AddSource(ctx context.Context, name, rating string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	input := models.SourceInput{
		Name:              name,
		ReliabilityRating: models.ClampReliability(util.FloatOr(rating, models.DefaultReliability)),
	}
	if err := s.tables.Insert(ctx, models.TableSources, input, nil); err != nil {
		logx.FromContext(ctx).Error("Failed to add source", "source", name, logx.Error(err))
		s.notify.Error(messageOr(err, "Failed to add source"))
		return fmt.Errorf("add source %q: %w", name, err)
	}
	s.notify.Success("Source added!")
	return s.LoadSources(ctx)
}

// SourceUpdate carries inline edits. Nil fields are left unchanged.
type SourceUpdate struct {
	Name              *string `json:"name"`
	ReliabilityRating *string `json:"reliability_rating"`
}

func (s *Settings) UpdateSource(ctx context.Context, id string, upd SourceUpdate) error {
	payload := map[string]any{}
	if upd.Name != nil {
		if name := strings.TrimSpace(*upd.Name); name != "" {
			payload["name"] = name
		}
	}
	// Edits keep 0; only a blank or non-numeric rating is skipped.
	if upd.ReliabilityRating != nil {
		if r := util.ParseOptionalFloat(*upd.ReliabilityRating); r != nil {
			payload["reliability_rating"] = models.ClampReliability(*r)
		}
	}
	if len(payload) == 0 {
		return nil
	}

	q := gateway.From(models.TableSources).Eq("id", id)
	if err := s.tables.Update(ctx, q, payload); err != nil {
		logx.FromContext(ctx).Error("Failed to update source", "source-id", id, logx.Error(err))
		s.notify.Error(messageOr(err, "Failed to update source"))
		return fmt.Errorf("update source %s: %w", id, err)
	}
	s.notify.Success("Source updated!")
	return s.LoadSources(ctx)
}

// RequestDeleteSource asks for confirmation before deleting.
func (s *Settings) RequestDeleteSource(id string) {
	s.mu.Lock()
	s.pendingSource = id
	s.mu.Unlock()
}

func (s *Settings) CancelDeleteSource() {
	s.mu.Lock()
	s.pendingSource = ""
	s.mu.Unlock()
}

func (s *Settings) ConfirmDeleteSource(ctx context.Context) error {
	s.mu.Lock()
	id := s.pendingSource
	s.pendingSource = ""
	s.mu.Unlock()
	if id == "" {
		return ErrNoPendingDelete
	}

	if err := s.tables.Delete(ctx, gateway.From(models.TableSources).Eq("id", id)); err != nil {
		logx.FromContext(ctx).Error("Failed to delete source", "source-id", id, logx.Error(err))
		s.notify.Error(messageOr(err, "Failed to delete source"))
		return fmt.Errorf("delete source %s: %w", id, err)
	}
	s.notify.Success("Source deleted")
	return s.LoadSources(ctx)
}

func (s *Settings) View() SettingsView {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := lo.Map(s.settings, func(row models.AppSetting, _ int) SettingRow {
		v := s.buffer[row.Key]
		return SettingRow{
			Key:         row.Key,
			Value:       v,
			Description: row.Description,
			Secret:      row.IsSecret(),
			Dirty:       v != string(row.Value),
		}
	})
	sources := s.sources
	if sources == nil {
		sources = []models.Source{}
	}
	return SettingsView{
		Tab:                 s.tab,
		Settings:            rows,
		Sources:             sources,
		PendingSourceDelete: s.pendingSource,
	}
}
