package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"teahouse/internal/model"
	"teahouse/internal/service"
	"teahouse/pkg/apierror"
)

type TeaHandler struct {
	service *service.TeaService
}

func NewTeaHandler(service *service.TeaService) *TeaHandler {
	return &TeaHandler{service: service}
}

func (h *TeaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.TeaInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	tea, err := h.service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tea)
}

func (h *TeaHandler) List(w http.ResponseWriter, r *http.Request) {
	teas, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, teas)
}

func (h *TeaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := teaID(w, r)
	if !ok {
		return
	}

	tea, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tea)
}

func (h *TeaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := teaID(w, r)
	if !ok {
		return
	}

	var payload model.TeaInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	tea, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tea)
}

func (h *TeaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := teaID(w, r)
	if !ok {
		return
	}

	tea, err := h.service.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tea)
}

// teaID treats an id that is not an integer like a missing tea.
func teaID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierror.NotFound("Tea not found"))
		return 0, false
	}
	return id, true
}
