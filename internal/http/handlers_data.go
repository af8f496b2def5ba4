package http

import (
	"encoding/json"
	"io"
	"net/http"

	"finanzas/internal/services"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	env := s.svc.Data.Export(r.Context())
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.svc.Data.ExportFilename()+`"`)
	writeJSON(w, r, http.StatusOK, env)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mode := services.ImportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = services.ImportOverwrite
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "cannot read request body")
		return
	}
	if !json.Valid(payload) {
		writeError(w, r, http.StatusBadRequest, "payload is not valid JSON")
		return
	}
	if err := s.svc.Data.Import(r.Context(), payload, mode); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "imported", "mode": string(mode)})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.svc.Data.Stats(r.Context()))
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Data.Clear(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.svc.Data.ListBackups(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, backups)
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	info, err := s.svc.Data.CreateBackup(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, info)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Data.RestoreBackup(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "restored"})
}
