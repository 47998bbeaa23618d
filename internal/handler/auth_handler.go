package handler

import (
	"net/http"
	"strings"

	"teahouse/internal/middleware"
	"teahouse/internal/model"
	"teahouse/internal/service"
	"teahouse/pkg/apierror"
)

const refreshTokenCookie = "refreshToken"

type AuthHandler struct {
	service       *service.AuthService
	uploads       UploadConfig
	secureCookies bool
}

func NewAuthHandler(service *service.AuthService, uploads UploadConfig, secureCookies bool) *AuthHandler {
	return &AuthHandler{service: service, uploads: uploads, secureCookies: secureCookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	form, err := stageMultipart(w, r, h.uploads, "avatar", "coverImage")
	if err != nil {
		writeError(w, err)
		return
	}
	defer form.Cleanup()

	avatar := form.file("avatar")
	cover := form.file("coverImage")
	user, err := h.service.Register(r.Context(), model.RegisterInput{
		Fullname:       form.Values["fullname"],
		Email:          form.Values["email"],
		Username:       form.Values["username"],
		Password:       form.Values["password"],
		AvatarPath:     avatar.Path,
		AvatarType:     avatar.ContentType,
		CoverImagePath: cover.Path,
		CoverImageType: cover.ContentType,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, "User registered successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, result.AccessToken, result.RefreshToken)
	writeSuccess(w, http.StatusOK, result, "User logged in successfully")
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Unauthorized request"))
		return
	}

	if err := h.service.Logout(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}

	h.clearTokenCookies(w)
	writeSuccess(w, http.StatusOK, struct{}{}, "User logged out successfully")
}

// RefreshToken reads the token from its cookie first, then from the body.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		token = strings.TrimSpace(cookie.Value)
	}
	if token == "" && r.ContentLength != 0 {
		var payload model.RefreshRequest
		if err := decodeJSON(w, r, &payload); err == nil {
			token = strings.TrimSpace(payload.RefreshToken)
		}
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, pair.AccessToken, pair.RefreshToken)
	writeSuccess(w, http.StatusOK, pair, "Access token refreshed successfully")
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Unauthorized request"))
		return
	}

	var payload model.ChangePasswordRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), user.ID, payload); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, struct{}{}, "Password changed successfully")
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("Unauthorized request"))
		return
	}

	writeSuccess(w, http.StatusOK, user, "Current user fetched successfully")
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, access))
	http.SetCookie(w, h.cookie(refreshTokenCookie, refresh))
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		c := h.cookie(name, "")
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *AuthHandler) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
