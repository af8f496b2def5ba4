package http

import (
	"fmt"
	"net/http"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

const dateLayout = "2006-01-02"

type obligationRequest struct {
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Amount      string `json:"amount"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate,omitempty"`
}

type obligationPatchRequest struct {
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Frequency   *string `json:"frequency,omitempty"`
	StartDate   *string `json:"startDate,omitempty"`
	EndDate     *string `json:"endDate,omitempty"`
}

func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", core.ErrValidation, raw)
	}
	return t, nil
}

func (req obligationRequest) toInput() (services.ScheduleInput, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return services.ScheduleInput{}, err
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return services.ScheduleInput{}, err
	}
	in := services.ScheduleInput{
		Description: req.Description,
		Category:    req.Category,
		Amount:      amount,
		Frequency:   core.Frequency(req.Frequency),
		StartDate:   start,
	}
	if req.EndDate != "" {
		end, err := parseDate(req.EndDate)
		if err != nil {
			return services.ScheduleInput{}, err
		}
		in.EndDate = &end
	}
	return in, nil
}

func (req obligationPatchRequest) toPatch() (services.SchedulePatch, error) {
	var patch services.SchedulePatch
	patch.Description = req.Description
	patch.Category = req.Category
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			return services.SchedulePatch{}, err
		}
		patch.Amount = &amount
	}
	if req.Frequency != nil {
		f := core.Frequency(*req.Frequency)
		patch.Frequency = &f
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			return services.SchedulePatch{}, err
		}
		patch.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			return services.SchedulePatch{}, err
		}
		patch.EndDate = &end
	}
	return patch, nil
}

func (s *Server) handleListObligations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Schedule.List(r.Context()))
}

func (s *Server) handleCreateObligation(w http.ResponseWriter, r *http.Request) {
	var req obligationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ob, err := s.svc.Schedule.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, ob)
}

func (s *Server) handleEditObligation(w http.ResponseWriter, r *http.Request) {
	var req obligationPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	ob, err := s.svc.Schedule.Edit(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ob)
}

func (s *Server) handleDeleteObligation(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Schedule.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleObligation(w http.ResponseWriter, r *http.Request) {
	ob, err := s.svc.Schedule.ToggleActive(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ob)
}

func (s *Server) handlePendingObligations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Schedule.ListPending(r.Context(), time.Now()))
}

func (s *Server) handleObligationsDue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Schedule.WithDueInfo(r.Context(), time.Now()))
}

func (s *Server) handleMaterializeObligation(w http.ResponseWriter, r *http.Request) {
	entry, err := s.svc.Schedule.Materialize(r.Context(), r.PathValue("id"), time.Now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, entry)
}

func (s *Server) handleMaterializePending(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.Schedule.MaterializePending(r.Context(), time.Now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"materialized": len(entries),
		"entries":      entries,
	})
}
