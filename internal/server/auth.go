package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/guard"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// authFailure is shown inline on the form that caused it.
type authFailure struct {
	Error string `json:"error"`
}

// getAuthPage sends signed-in users home. Anyone else gets the session
// state so the form can render.
func (s *Server) getAuthPage(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	if guard.StateOf(snap) == guard.Authenticated {
		http.Redirect(w, r, guard.HomePath, http.StatusSeeOther)
		return
	}
	replyJSON(r.Context(), w, http.StatusOK, snap)
}

func (s *Server) postLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c credentials
	if err := readJSON(r, &c); err != nil {
		replyError(ctx, w, err)
		return
	}

	nav, err := s.auth.Login(ctx, c.Email, c.Password)
	if err != nil {
		replyJSON(ctx, w, http.StatusUnauthorized, authFailure{Error: gateway.Message(err)})
		return
	}
	replyNav(ctx, w, nav)
}

func (s *Server) postSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var c credentials
	if err := readJSON(r, &c); err != nil {
		replyError(ctx, w, err)
		return
	}

	nav, err := s.auth.Signup(ctx, c.Email, c.Password, c.FullName)
	if err != nil {
		replyJSON(ctx, w, http.StatusBadRequest, authFailure{Error: gateway.Message(err)})
		return
	}
	replyNav(ctx, w, nav)
}

func (s *Server) postLogout(w http.ResponseWriter, r *http.Request) {
	replyNav(r.Context(), w, s.auth.Logout(r.Context()))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	replyJSON(r.Context(), w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) getNotifications(w http.ResponseWriter, r *http.Request) {
	replyJSON(r.Context(), w, http.StatusOK, s.notify.Entries())
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return badRequest("notification id", err)
	}
	s.notify.Dismiss(id)
	w.WriteHeader(http.StatusNoContent)
	return nil
}
