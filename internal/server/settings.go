package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/multierr"

	"github.com/pauljones0/commodity-tracker/internal/views"
)

type tabRequest struct {
	Tab views.SettingsTab `json:"tab"`
}

type sourceRequest struct {
	Name              string `json:"name"`
	ReliabilityRating string `json:"reliability_rating"`
}

func (s *Server) replySettings(w http.ResponseWriter, r *http.Request) {
	replyJSON(r.Context(), w, http.StatusOK, s.settings.View())
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) error {
	if err := s.settings.Load(r.Context()); err != nil {
		return err
	}
	s.replySettings(w, r)
	return nil
}

func (s *Server) postSettingsTab(w http.ResponseWriter, r *http.Request) error {
	var req tabRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	if err := s.settings.SetTab(req.Tab); err != nil {
		return badRequest("tab", err)
	}
	s.replySettings(w, r)
	return nil
}

// putSettingValues edits the buffer only; nothing is written until save.
func (s *Server) putSettingValues(w http.ResponseWriter, r *http.Request) error {
	var values map[string]string
	if err := readJSON(r, &values); err != nil {
		return err
	}
	var errs error
	for key, value := range values {
		errs = multierr.Append(errs, s.settings.SetValue(key, value))
	}
	if errs != nil {
		return errs
	}
	s.replySettings(w, r)
	return nil
}

func (s *Server) postSaveSettings(w http.ResponseWriter, r *http.Request) error {
	if err := s.settings.Save(r.Context()); err != nil {
		return err
	}
	s.replySettings(w, r)
	return nil
}

func (s *Server) postSource(w http.ResponseWriter, r *http.Request) error {
	var req sourceRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	if err := s.settings.AddSource(r.Context(), req.Name, req.ReliabilityRating); err != nil {
		return err
	}
	s.replySettings(w, r)
	return nil
}

func (s *Server) patchSource(w http.ResponseWriter, r *http.Request) error {
	var upd views.SourceUpdate
	if err := readJSON(r, &upd); err != nil {
		return err
	}
	if err := s.settings.UpdateSource(r.Context(), chi.URLParam(r, "id"), upd); err != nil {
		return err
	}
	s.replySettings(w, r)
	return nil
}

func (s *Server) postRequestDeleteSource(w http.ResponseWriter, r *http.Request) error {
	s.settings.RequestDeleteSource(chi.URLParam(r, "id"))
	s.replySettings(w, r)
	return nil
}

func (s *Server) postCancelDeleteSource(w http.ResponseWriter, r *http.Request) error {
	s.settings.CancelDeleteSource()
	s.replySettings(w, r)
	return nil
}

func (s *Server) postConfirmDeleteSource(w http.ResponseWriter, r *http.Request) error {
	if err := s.settings.ConfirmDeleteSource(r.Context()); err != nil {
		return err
	}
	s.replySettings(w, r)
	return nil
}
