// Package guard decides whether a route may render for the current
// session.
package guard

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/pauljones0/commodity-tracker/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	LoginPath = "/login"
	HomePath  = "/"
)

type State int

const (
	Loading State = iota
	Unauthenticated
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// StateOf classifies a session snapshot.
func StateOf(snap session.Snapshot) State {
	switch {
	case snap.Loading:
		return Loading
	case snap.Identity == nil:
		return Unauthenticated
	default:
		return Authenticated
	}
}

// Decision is the outcome for one route. An empty Redirect with state
// Authenticated means the route renders.
type Decision struct {
	State    State
	Redirect string
}

// Allowed reports whether the protected content may render.
func (d Decision) Allowed() bool {
	return d.State == Authenticated && d.Redirect == ""
}

// Evaluate applies the route rules. Loading never redirects.
func Evaluate(snap session.Snapshot, requireAdmin bool) Decision {
	state := StateOf(snap)
	switch state {
	case Unauthenticated:
		return Decision{State: state, Redirect: LoginPath}
	case Authenticated:
		if requireAdmin && !snap.IsPrivileged {
			return Decision{State: state, Redirect: HomePath}
		}
	}
	return Decision{State: state}
}

// Source yields the current session snapshot.
type Source interface {
	Snapshot() session.Snapshot
}

// Require wraps protected handlers. While the session loads it answers
// 202 with a placeholder body; redirects are 303 with Location set.
func Require(src Source, requireAdmin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Evaluate(src.Snapshot(), requireAdmin)
			switch {
			case d.State == Loading:
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusAccepted)
				_ = json.NewEncoder(w).Encode(map[string]any{"loading": true})
			case d.Redirect != "":
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
