package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/essexfb/backend/feedback"
	"github.com/essexfb/backend/httpjson"
	"github.com/essexfb/backend/logger"
)

func (s *Server) adminExportCSV(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "text/csv; charset=utf-8", s.store.ExportCSV)
}

func (s *Server) adminExportJSON(w http.ResponseWriter, r *http.Request) {
	s.serveExport(w, r, "application/json; charset=utf-8", s.store.ExportJSON)
}

func (s *Server) serveExport(
	w http.ResponseWriter,
	r *http.Request,
	contentType string,
	render func(context.Context) (feedback.Export, error),
) {
	if !s.requireSession(w, r) {
		return
	}

	export, err := render(r.Context())
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}
	if export.Count == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.touchSession(r)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename=%q`, export.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(export.Content)))
	w.WriteHeader(http.StatusOK)
	w.Write(export.Content)
}

// purgeConfirmation is the phrase the admin has to type; same as the old
// admin panel required.
const purgeConfirmation = "DELETE"

func (s *Server) adminPurge(w http.ResponseWriter, r *http.Request) {
	if !s.requireSession(w, r) {
		return
	}

	type purgeRequest struct {
		Confirm string `json:"confirm"`
	}
	var request purgeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if request.Confirm != purgeConfirmation {
		httpjson.WriteErrorJson(w,
			fmt.Sprintf("type %s to confirm clearing all submissions", purgeConfirmation),
			http.StatusBadRequest, "confirmation_required")
		return
	}

	result, err := s.store.Purge(r.Context())
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}

	s.touchSession(r)
	httpjson.WriteSuccessJson(w, result)
}
