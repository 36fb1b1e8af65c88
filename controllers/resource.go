package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"records-api/apperror"
	"records-api/models"
	"records-api/store"
)

// Records is the storage a resource handler needs. *store.Collection
// satisfies it.
type Records[T any] interface {
	Page(ctx context.Context, skip, limit int64) ([]T, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (T, error)
	Insert(ctx context.Context, doc any) (any, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (store.UpdateResult, error)
	Replace(ctx context.Context, id primitive.ObjectID, doc any) error
	Delete(ctx context.Context, id primitive.ObjectID) (store.DeleteResult, error)
}

var (
	errInvalidID   = apperror.New(apperror.InvalidIdentifier, "Invalid id")
	errNotFound    = apperror.New(apperror.NotFound, "Not found")
	errInvalidJSON = apperror.New(apperror.InvalidPayload, "Invalid JSON body")
)

// Resource serves paginated CRUD for one schema-validated collection.
type Resource[T any] struct {
	schema  models.Schema
	records Records[T]
	logger  *slog.Logger
}

func NewResource[T any](schema models.Schema, records Records[T], logger *slog.Logger) *Resource[T] {
	return &Resource[T]{schema: schema, records: records, logger: logger}
}

func (h *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	p := models.ParsePagination(r.URL.Query())
	docs, total, err := h.records.Page(r.Context(), p.Skip(), p.Limit)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewPageResult(docs, p, total))
}

func (h *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	payload, err := models.DecodePayload(r.Body)
	if err != nil {
		writeError(w, r, h.logger, errInvalidJSON)
		return
	}
	if errs := h.schema.ValidateCreate(payload); len(errs) > 0 {
		writeError(w, r, h.logger, apperror.Invalid("", errs))
		return
	}

	doc := h.schema.Document(payload)
	now := timestamp()
	doc["createdAt"] = now
	doc["updatedAt"] = now

	inserted, err := h.records.Insert(r.Context(), doc)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, ok := inserted.(primitive.ObjectID)
	if !ok {
		writeError(w, r, h.logger, fmt.Errorf("unexpected inserted id %T", inserted))
		return
	}

	created, err := h.records.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, errInvalidID)
		return
	}
	doc, err := h.records.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errNotFound))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Replace swaps the record for the required fields of the payload. Optional
// fields and createdAt do not survive a replace.
func (h *Resource[T]) Replace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, errInvalidID)
		return
	}
	payload, err := models.DecodePayload(r.Body)
	if err != nil {
		writeError(w, r, h.logger, errInvalidJSON)
		return
	}
	if errs := h.schema.ValidateReplace(payload); len(errs) > 0 {
		writeError(w, r, h.logger, apperror.Invalid("Invalid payload", errs))
		return
	}

	doc := h.schema.Replacement(payload)
	doc["updatedAt"] = timestamp()
	if err := h.records.Replace(r.Context(), id, doc); err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errNotFound))
		return
	}
	h.respondWithRecord(w, r, id)
}

func (h *Resource[T]) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, errInvalidID)
		return
	}
	payload, err := models.DecodePayload(r.Body)
	if err != nil {
		writeError(w, r, h.logger, errInvalidJSON)
		return
	}
	if errs := h.schema.ValidatePatch(payload); len(errs) > 0 {
		writeError(w, r, h.logger, apperror.Invalid("", errs))
		return
	}

	fields := h.schema.Merge(payload)
	fields["updatedAt"] = timestamp()
	if _, err := h.records.Update(r.Context(), id, fields); err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errNotFound))
		return
	}
	h.respondWithRecord(w, r, id)
}

func (h *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, errInvalidID)
		return
	}
	if _, err := h.records.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errNotFound))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Resource[T]) respondWithRecord(w http.ResponseWriter, r *http.Request, id primitive.ObjectID) {
	doc, err := h.records.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errNotFound))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
