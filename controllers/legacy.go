package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"records-api/models"
	"records-api/store"
)

// LegacyRecords is the untyped item storage behind /api/test/items.
type LegacyRecords interface {
	All(ctx context.Context) ([]bson.M, error)
	Get(ctx context.Context, id primitive.ObjectID) (bson.M, error)
	Insert(ctx context.Context, doc any) (any, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (store.UpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (store.DeleteResult, error)
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Legacy keeps the older envelope-style item API alive. It stores bodies
// as sent, without schema validation or timestamps.
type Legacy struct {
	items  LegacyRecords
	logger *slog.Logger
}

func NewLegacy(items LegacyRecords, logger *slog.Logger) *Legacy {
	return &Legacy{items: items, logger: logger}
}

func (h *Legacy) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		docs, err := h.items.All(r.Context())
		if err != nil {
			h.storageFault(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: docs})

	case http.MethodPost:
		payload, err := models.DecodePayload(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid JSON body"})
			return
		}
		id, err := h.items.Insert(r.Context(), bson.M(payload))
		if err != nil {
			h.storageFault(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, envelope{
			Success: true,
			Data: map[string]interface{}{
				"acknowledged": true,
				"insertedId":   id,
			},
		})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Message: "Method not allowed"})
	}
}

func (h *Legacy) Record(w http.ResponseWriter, r *http.Request) {
	setCORS(w.Header())
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid ID format"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		doc, err := h.items.Get(r.Context(), id)
		if err != nil {
			h.recordFault(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: doc})

	case http.MethodPut:
		payload, err := models.DecodePayload(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, envelope{Message: "Invalid JSON body"})
			return
		}
		res, err := h.items.Update(r.Context(), id, bson.M(payload))
		if err != nil {
			h.recordFault(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: res, Message: "Item updated successfully"})

	case http.MethodDelete:
		res, err := h.items.Delete(r.Context(), id)
		if err != nil {
			h.recordFault(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: res, Message: "Item deleted successfully"})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Message: "Method not allowed"})
	}
}

func (h *Legacy) recordFault(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, envelope{Message: "Item not found"})
		return
	}
	h.storageFault(w, r, err)
}

func (h *Legacy) storageFault(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "legacy item request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	writeJSON(w, http.StatusInternalServerError, envelope{Error: err.Error()})
}

func setCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}
