package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teahouse/internal/middleware"
	"teahouse/internal/model"
	"teahouse/internal/service"
	"teahouse/pkg/apierror"
)

type UserHandler struct {
	service *service.UserService
	uploads UploadConfig
}

func NewUserHandler(service *service.UserService, uploads UploadConfig) *UserHandler {
	return &UserHandler{service: service, uploads: uploads}
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var payload model.UpdateAccountRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.UpdateAccount(r.Context(), user.ID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, "Account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, model.AvatarField, "Avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, model.CoverImageField, "Cover image updated successfully")
}

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field model.ImageField, message string) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	form, err := stageMultipart(w, r, h.uploads, string(field))
	if err != nil {
		writeError(w, err)
		return
	}
	defer form.Cleanup()

	file := form.file(string(field))
	updated, err := h.service.UpdateImage(r.Context(), user.ID, field, file.Path, file.ContentType)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, message)
}

func (h *UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.service.ChannelProfile(r.Context(), chi.URLParam(r, "username"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, "Channel found successfully")
}

func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Subscribe(r.Context(), user.ID, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, "Subscribed successfully")
}

func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.service.Unsubscribe(r.Context(), user.ID, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, "Unsubscribed successfully")
}

func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	history, err := h.service.WatchHistory(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, history, "Watch history found successfully")
}

func (h *UserHandler) AddToWatchHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.service.AddToWatchHistory(r.Context(), user.ID, chi.URLParam(r, "videoId")); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, struct{}{}, "Video added to watch history")
}

func requireUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Unauthorized request"))
	}
	return user, ok
}
