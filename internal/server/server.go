// Package server exposes the screens as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/guard"
	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/notify"
	"github.com/pauljones0/commodity-tracker/internal/views"
)

// Session is what the API needs from the session state.
type Session interface {
	guard.Source
	views.SessionActions
}

// Notifications is the notification queue as seen by the API.
type Notifications interface {
	views.Notifier
	Entries() []notify.Entry
	Dismiss(id uint64)
}

// Server holds one controller per screen. Controllers with state (board,
// detail flags, settings buffer) live as long as the server.
type Server struct {
	gw      gateway.Gateway
	session Session
	notify  Notifications
	logger  *slog.Logger
	now     func() time.Time

	auth      *views.Auth
	dashboard *views.Dashboard
	kanban    *views.Kanban
	detail    *views.Detail
	analysis  *views.Analysis
	settings  *views.Settings
}

func New(gw gateway.Gateway, sess Session, notes Notifications, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		gw:        gw,
		session:   sess,
		notify:    notes,
		logger:    logger,
		now:       time.Now,
		auth:      views.NewAuth(sess),
		dashboard: views.NewDashboard(gw.Tables, notes),
		kanban:    views.NewKanban(gw.Tables, notes),
		detail:    views.NewDetail(gw, sess, notes),
		analysis:  views.NewAnalysis(gw.Tables),
		settings:  views.NewSettings(gw.Tables, notes),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID, Logger(s.logger), Recovery, Metrics)
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		replyJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// public zone
	r.Get("/login", s.getAuthPage)
	r.Get("/signup", s.getAuthPage)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.postLogin)
		r.Post("/auth/signup", s.postSignup)
		r.Post("/auth/logout", s.postLogout)
		r.Get("/session", s.getSession)
		r.Get("/notifications", s.getNotifications)
		r.Delete("/notifications/{id}", handler(s.deleteNotification))
	})

	r.Group(func(r chi.Router) {
		r.Use(guard.Require(s.session, false))

		r.Get("/", handler(s.getDashboard))
		r.Route("/kanban", func(r chi.Router) {
			r.Get("/", handler(s.getKanban))
			r.Post("/move", handler(s.postKanbanMove))
		})
		r.Get("/deals/new", handler(s.getNewDeal))
		r.Post("/deals", handler(s.postDeal))
		r.Route("/deals/{id}", func(r chi.Router) {
			r.Get("/", handler(s.getDeal))
			r.Get("/edit", handler(s.getEditDeal))
			r.Post("/edit", handler(s.postEditDeal))
			r.Post("/score", handler(s.postScore))
			r.Post("/delete", handler(s.postRequestDelete))
			r.Post("/delete/confirm", handler(s.postConfirmDelete))
			r.Post("/delete/cancel", handler(s.postCancelDelete))
			r.Get("/analysis", handler(s.getAnalysis))
			r.Get("/analysis/export", handler(s.getAnalysisExport))
		})
	})

	r.Route("/settings", func(r chi.Router) {
		r.Use(guard.Require(s.session, true))

		r.Get("/", handler(s.getSettings))
		r.Post("/tab", handler(s.postSettingsTab))
		r.Put("/values", handler(s.putSettingValues))
		r.Post("/save", handler(s.postSaveSettings))
		r.Post("/sources", handler(s.postSource))
		r.Patch("/sources/{id}", handler(s.patchSource))
		r.Post("/sources/{id}/delete", handler(s.postRequestDeleteSource))
		r.Post("/sources/delete/confirm", handler(s.postConfirmDeleteSource))
		r.Post("/sources/delete/cancel", handler(s.postCancelDeleteSource))
	})
}

// HTTPServer runs an http.Server on an errgroup and shuts it down when
// ctx ends.
type HTTPServer struct {
	ShutdownTimeout time.Duration
}

func (h HTTPServer) Run(ctx context.Context, g *errgroup.Group, httpServer *http.Server) {
	g.Go(func() error {
		go func() {
			<-ctx.Done()

			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.ShutdownTimeout) //nolint:govet
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				logx.FromContext(ctx).Error("server.Shutdown", logx.Error(err))
			}
		}()

		logx.FromContext(ctx).Info("http server started", slog.String("address", httpServer.Addr))

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer.ListenAndServe: %w", err)
		}

		logx.FromContext(ctx).Info("http server stopped", slog.String("address", httpServer.Addr))

		return nil
	})
}
