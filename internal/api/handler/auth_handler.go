package handler

import (
	"net/http"

	"chall_zone/internal/api/middleware"
	"chall_zone/internal/app/service"
	"chall_zone/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	rev         middleware.RevocationChecker
}

func NewAuthHandler(authService *service.AuthService, rev middleware.RevocationChecker) *AuthHandler {
	return &AuthHandler{authService: authService, rev: rev}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator(h.rev))
		authed.Post("/logout", h.logout)
		authed.Put("/password", h.changePassword)
	})
}

// RegisterAdminRoutes mounts account administration.
func (h *AuthHandler) RegisterAdminRoutes(r chi.Router) {
	r.Use(middleware.Authenticator(h.rev))
	r.Use(middleware.AdminOnly)
	r.Post("/users/{username}/password-reset", h.forcePasswordReset)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Register(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := h.authService.Logout(r.Context(), claims); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req service.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.authService.ChangePassword(r.Context(), middleware.ViewerID(r.Context()), req); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) forcePasswordReset(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.authService.ForcePasswordReset(r.Context(), middleware.ViewerID(r.Context()), username); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
