package http

import (
	"net/http"
	"sort"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

// entryRequest is the wire form of an income, asset or liability entry.
// Amount uses the display format: dots group thousands, a comma starts
// the decimals.
type entryRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category,omitempty"`
	Liquid      *bool  `json:"liquid,omitempty"`
}

func (req entryRequest) toInput() (services.EntryInput, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return services.EntryInput{}, err
	}
	return services.EntryInput{
		Description: req.Description,
		Amount:      amount,
		Category:    req.Category,
		Liquid:      req.Liquid,
	}, nil
}

type monthResponse struct {
	Period string            `json:"period"`
	Record *core.MonthRecord `json:"record"`
}

func (s *Server) handleInitMonth(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Ledger.InitMonth(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	periods := s.svc.Ledger.Periods(r.Context())
	sort.Strings(periods)
	writeJSON(w, r, http.StatusOK, map[string][]string{"periods": periods})
}

func (s *Server) handleCurrentMonth(w http.ResponseWriter, r *http.Request) {
	rec, period, err := s.svc.Ledger.CurrentMonth(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, monthResponse{Period: period, Record: rec})
}

func (s *Server) handleGetMonth(w http.ResponseWriter, r *http.Request) {
	period := r.PathValue("period")
	rec, err := s.svc.Ledger.Month(r.Context(), period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, monthResponse{Period: period, Record: rec})
}

func (s *Server) handleAddEntry(col string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		var entry core.Entry
		switch col {
		case "income":
			entry, err = s.svc.Ledger.AddIncome(r.Context(), in)
		case "assets":
			entry, err = s.svc.Ledger.AddAsset(r.Context(), in)
		default:
			entry, err = s.svc.Ledger.AddLiability(r.Context(), in)
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusCreated, entry)
	}
}

func (s *Server) handleEditEntry(col string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		var req entryRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		var entry core.Entry
		switch col {
		case "income":
			entry, err = s.svc.Ledger.EditIncome(r.Context(), id, in)
		case "assets":
			entry, err = s.svc.Ledger.EditAsset(r.Context(), id, in)
		default:
			entry, err = s.svc.Ledger.EditLiability(r.Context(), id, in)
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, entry)
	}
}

func (s *Server) handleDeleteEntry(col string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")

		var err error
		switch col {
		case "income":
			err = s.svc.Ledger.DeleteIncome(r.Context(), id)
		case "assets":
			err = s.svc.Ledger.DeleteAsset(r.Context(), id)
		default:
			err = s.svc.Ledger.DeleteLiability(r.Context(), id)
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
