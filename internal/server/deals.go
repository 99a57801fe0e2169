package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/pauljones0/commodity-tracker/internal/logx"
	"github.com/pauljones0/commodity-tracker/internal/models"
	"github.com/pauljones0/commodity-tracker/internal/report"
	"github.com/pauljones0/commodity-tracker/internal/views"
)

type formResponse struct {
	Edit    bool            `json:"edit"`
	Draft   views.Draft     `json:"draft"`
	Sources []models.Source `json:"sources"`
}

type moveRequest struct {
	DealID string            `json:"deal_id"`
	Status models.DealStatus `json:"status"`
}

type kanbanResponse struct {
	Columns []views.KanbanColumn `json:"columns"`
	// Stale is set when the reload failed and the previous board is shown.
	Stale bool `json:"stale,omitempty"`
}

func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var f views.DashboardFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := models.ParseDealStatus(raw)
		if err != nil {
			return badRequest("status filter", err)
		}
		f.Status = status
	}
	f.CommodityType = r.URL.Query().Get("commodity_type")

	view, err := s.dashboard.Load(ctx, f)
	if err != nil {
		return err
	}
	replyJSON(ctx, w, http.StatusOK, view)
	return nil
}

func (s *Server) getKanban(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	err := s.kanban.Load(ctx)
	replyJSON(ctx, w, http.StatusOK, kanbanResponse{Columns: s.kanban.Columns(), Stale: err != nil})
	return nil
}

func (s *Server) postKanbanMove(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var req moveRequest
	if err := readJSON(r, &req); err != nil {
		return err
	}
	if req.DealID == "" {
		return badRequest("move", errMissing("deal_id"))
	}
	if !lo.Contains(views.KanbanStatuses, req.Status) {
		return badRequest("move", fmt.Errorf("status %q is not a board column", req.Status))
	}

	if !onBoard(s.kanban.Columns(), req.DealID) {
		if err := s.kanban.Load(ctx); err != nil {
			return err
		}
	}
	if err := s.kanban.Move(ctx, req.DealID, req.Status); err != nil {
		return err
	}
	replyJSON(ctx, w, http.StatusOK, kanbanResponse{Columns: s.kanban.Columns()})
	return nil
}

func onBoard(cols []views.KanbanColumn, dealID string) bool {
	return lo.SomeBy(cols, func(c views.KanbanColumn) bool {
		return lo.ContainsBy(c.Deals, func(d models.Deal) bool { return d.ID == dealID })
	})
}

func (s *Server) getNewDeal(w http.ResponseWriter, r *http.Request) error {
	return s.replyForm(w, r, views.NewDealForm(s.gw.Tables, s.session, s.notify, ""))
}

func (s *Server) getEditDeal(w http.ResponseWriter, r *http.Request) error {
	form := views.NewDealForm(s.gw.Tables, s.session, s.notify, chi.URLParam(r, "id"))
	if nav, err := form.Load(r.Context()); err != nil {
		replyErrorNav(r.Context(), w, err, nav)
		return nil
	}
	return s.replyForm(w, r, form)
}

func (s *Server) replyForm(w http.ResponseWriter, r *http.Request, form *views.DealForm) error {
	ctx := r.Context()
	sources, err := form.Sources(ctx)
	if err != nil {
		logx.FromContext(ctx).Warn("Sources not loaded for form", logx.Error(err))
	}
	if sources == nil {
		sources = []models.Source{}
	}
	replyJSON(ctx, w, http.StatusOK, formResponse{Edit: form.IsEdit(), Draft: form.Draft, Sources: sources})
	return nil
}

func (s *Server) postDeal(w http.ResponseWriter, r *http.Request) error {
	form := views.NewDealForm(s.gw.Tables, s.session, s.notify, "")
	return s.submitForm(w, r, form, http.StatusCreated)
}

// postEditDeal overlays the body on the stored deal, so omitted fields
// keep their values.
func (s *Server) postEditDeal(w http.ResponseWriter, r *http.Request) error {
	form := views.NewDealForm(s.gw.Tables, s.session, s.notify, chi.URLParam(r, "id"))
	if nav, err := form.Load(r.Context()); err != nil {
		replyErrorNav(r.Context(), w, err, nav)
		return nil
	}
	return s.submitForm(w, r, form, http.StatusOK)
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request, form *views.DealForm, status int) error {
	ctx := r.Context()
	if err := readJSON(r, &form.Draft); err != nil {
		return err
	}
	form.Draft.SetCommission(form.Draft.Commission)

	nav, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	replyJSON(ctx, w, status, navResponse{Redirect: nav})
	return nil
}

func (s *Server) getDeal(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	view, nav, err := s.detail.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		replyErrorNav(ctx, w, err, nav)
		return nil
	}
	replyJSON(ctx, w, http.StatusOK, view)
	return nil
}

func (s *Server) postScore(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	view, err := s.detail.Score(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	replyJSON(ctx, w, http.StatusOK, view)
	return nil
}

func (s *Server) postRequestDelete(w http.ResponseWriter, r *http.Request) error {
	if err := s.detail.RequestDelete(chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) postCancelDelete(w http.ResponseWriter, r *http.Request) error {
	if err := s.detail.CancelDelete(chi.URLParam(r, "id")); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) postConfirmDelete(w http.ResponseWriter, r *http.Request) error {
	nav, err := s.detail.ConfirmDelete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	replyNav(r.Context(), w, nav)
	return nil
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	view, err := s.analysis.Load(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	replyJSON(ctx, w, http.StatusOK, view)
	return nil
}

// getAnalysisExport streams the newest analysis as a workbook. A deal
// without one is 404.
func (s *Server) getAnalysisExport(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	view, err := s.analysis.Load(ctx, id)
	if err != nil {
		return err
	}
	if view.State != views.AnalysisFilled {
		return errNoAnalysis(id)
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(id, s.now())+`"`)
	if err := report.WriteAnalysis(w, *view.Deal, *view.Analysis); err != nil {
		logx.FromContext(ctx).Error("Analysis export failed", logx.FieldDealID, id, logx.Error(err))
		return err
	}
	return nil
}
