package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"records-api/apperror"
	"records-api/models"
	"records-api/store"
)

type errorBody struct {
	Error  string   `json:"error,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps err onto its HTTP status. Unexpected failures are logged
// and their message is passed through to the caller.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	appErr := apperror.Wrap(err)
	if appErr.Kind == apperror.Unexpected {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	msg := appErr.Message
	if msg == "" && len(appErr.Details) == 0 {
		msg = appErr.Error()
	}
	writeJSON(w, appErr.Kind.Status(), errorBody{Error: msg, Errors: appErr.Details})
}

// notFoundAs swaps store.ErrNotFound for the route's own not-found error.
func notFoundAs(err error, notFound *apperror.Error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound
	}
	return err
}

func pathID(r *http.Request) (primitive.ObjectID, error) {
	return models.ParseID(mux.Vars(r)["id"])
}

func timestamp() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})
	})
}

func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	})
}
