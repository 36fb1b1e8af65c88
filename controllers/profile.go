package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"

	"records-api/apperror"
	"records-api/models"
)

// ImageRemover deletes a stored profile image by its public reference.
type ImageRemover interface {
	Remove(ref string) error
}

var (
	errInvalidUserID = apperror.New(apperror.InvalidIdentifier, "Invalid user ID")
	errUserNotFound  = apperror.New(apperror.NotFound, "User not found")
)

type Profile struct {
	users  Records[models.User]
	images ImageRemover
	logger *slog.Logger
}

func NewProfile(users Records[models.User], images ImageRemover, logger *slog.Logger) *Profile {
	return &Profile{users: users, images: images, logger: logger}
}

func (h *Profile) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, errInvalidUserID)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errUserNotFound))
		return
	}
	writeJSON(w, http.StatusOK, user.Profile())
}

// Patch updates the editable profile fields. When the image reference
// changes, the previous file is removed after the record is written.
func (h *Profile) Patch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, errInvalidUserID)
		return
	}
	payload, err := models.DecodePayload(r.Body)
	if err != nil {
		writeError(w, r, h.logger, errInvalidJSON)
		return
	}
	if errs := models.ProfileSchema.ValidatePatch(payload); len(errs) > 0 {
		writeError(w, r, h.logger, apperror.Invalid("", errs))
		return
	}

	existing, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errUserNotFound))
		return
	}

	fields := models.ProfileSchema.Document(payload)
	fields["updatedAt"] = timestamp()
	if _, err := h.users.Update(r.Context(), id, fields); err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errUserNotFound))
		return
	}

	if payload.Has("profileImage") {
		next, _ := payload["profileImage"].(string)
		if old := existing.Image(); old != nil && *old != next {
			h.removeImage(r.Context(), *old)
		}
	}

	updated, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errUserNotFound))
		return
	}
	writeJSON(w, http.StatusOK, updated.Profile())
}

// DeleteImage clears the profile image reference, then removes the file.
func (h *Profile) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, errInvalidUserID)
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errUserNotFound))
		return
	}

	fields := bson.M{"profileImage": nil, "updatedAt": timestamp()}
	if _, err := h.users.Update(r.Context(), id, fields); err != nil {
		writeError(w, r, h.logger, notFoundAs(err, errUserNotFound))
		return
	}
	if old := user.Image(); old != nil {
		h.removeImage(r.Context(), *old)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Profile image deleted",
	})
}

// removeImage never fails the request; a missing or locked file only warns.
func (h *Profile) removeImage(ctx context.Context, ref string) {
	if err := h.images.Remove(ref); err != nil {
		h.logger.WarnContext(ctx, "failed to delete profile image",
			slog.String("image", ref),
			slog.Any("error", err),
		)
	}
}
