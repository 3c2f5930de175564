package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/essexfb/backend/feedback"
	"github.com/essexfb/backend/httpjson"
	"github.com/essexfb/backend/logger"
)

func (s *Server) createFeedback(w http.ResponseWriter, r *http.Request) {
	var fields feedback.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	result, err := s.store.Append(r.Context(), fields)
	if err != nil {
		httpjson.HandleError(logger.FromContext(r.Context()), w, err)
		return
	}

	httpjson.WriteSuccessJson(w, result)
}
