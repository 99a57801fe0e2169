package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/models"
	"github.com/pauljones0/commodity-tracker/internal/session"
)

type staticSource session.Snapshot

func (s staticSource) Snapshot() session.Snapshot { return session.Snapshot(s) }

var (
	user    = &gateway.User{ID: "u1", Email: "u@example.com"}
	member  = session.Snapshot{Identity: user, Profile: &models.Profile{ID: "u1", Role: models.RoleUser}}
	admin   = session.Snapshot{Identity: user, Profile: &models.Profile{ID: "u1", Role: models.RoleAdmin}, IsPrivileged: true}
	loading = session.Snapshot{Loading: true}
	anon    = session.Snapshot{}
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		snap         session.Snapshot
		requireAdmin bool
		wantState    State
		wantRedirect string
	}{
		{"loading protected", loading, false, Loading, ""},
		{"loading admin", loading, true, Loading, ""},
		{"anonymous", anon, false, Unauthenticated, LoginPath},
		{"anonymous admin route", anon, true, Unauthenticated, LoginPath},
		{"member", member, false, Authenticated, ""},
		{"member on admin route", member, true, Authenticated, HomePath},
		{"admin on admin route", admin, true, Authenticated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.snap, tt.requireAdmin)
			if d.State != tt.wantState {
				t.Errorf("state = %v, want %v", d.State, tt.wantState)
			}
			if d.Redirect != tt.wantRedirect {
				t.Errorf("redirect = %q, want %q", d.Redirect, tt.wantRedirect)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	tests := []struct {
		name         string
		snap         session.Snapshot
		requireAdmin bool
		wantCode     int
		wantLocation string
	}{
		{"loading placeholder", loading, false, http.StatusAccepted, ""},
		{"redirect to login", anon, false, http.StatusSeeOther, LoginPath},
		{"redirect home", member, true, http.StatusSeeOther, HomePath},
		{"renders", admin, true, http.StatusTeapot, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rq := require.New(t)
			h := Require(staticSource(tt.snap), tt.requireAdmin)(ok)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))

			rq.Equal(tt.wantCode, rec.Code)
			rq.Equal(tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}
