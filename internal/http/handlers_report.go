package http

import (
	"net/http"
	"strconv"
)

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Reports.List(r.Context()))
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Period string `json:"period"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	snap, err := s.svc.Reports.Generate(r.Context(), req.Period)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, snap)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Reports.Get(r.Context(), r.PathValue("period"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}

func (s *Server) handleCompareReports(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	current := r.URL.Query().Get("current")
	if base == "" || current == "" {
		writeError(w, r, http.StatusBadRequest, "base and current query parameters are required")
		return
	}
	cmp, err := s.svc.Reports.Compare(r.Context(), base, current)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, cmp)
}

func (s *Server) handleReportTrends(w http.ResponseWriter, r *http.Request) {
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "months must be a positive number")
			return
		}
		months = n
	}
	trends, err := s.svc.Reports.Trends(r.Context(), months)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, trends)
}
