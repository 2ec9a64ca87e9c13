package handler

import (
	"net/http"

	"chall_zone/internal/api/middleware"
	"chall_zone/internal/app/service"
	"chall_zone/internal/common"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	profileService *service.ProfileService
	rev            middleware.RevocationChecker
	maxUploadBytes int64
}

func NewUserHandler(ps *service.ProfileService, rev middleware.RevocationChecker, maxUploadBytes int64) *UserHandler {
	return &UserHandler{profileService: ps, rev: rev, maxUploadBytes: maxUploadBytes}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.searchUsers) // GET /api/v1/users?q=ali&page=0
	r.Get("/{username}", h.getProfile)
	r.With(middleware.OptionalAuth(h.rev)).Get("/{username}/content", h.getContent)
}

// RegisterSelfRoutes mounts the caller's own account under /me.
func (h *UserHandler) RegisterSelfRoutes(r chi.Router) {
	r.Use(middleware.Authenticator(h.rev))
	r.Put("/profile", h.editProfile) // multipart: description, image, banner
}

func (h *UserHandler) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.profileService.SearchUsers(r.Context(), r.URL.Query().Get("q"), page(r))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *UserHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.profileService.GetProfile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, view)
}

func (h *UserHandler) getContent(w http.ResponseWriter, r *http.Request) {
	items, err := h.profileService.UserContent(r.Context(), middleware.ViewerID(r.Context()), chi.URLParam(r, "username"), page(r))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, feedEntries(items))
}

func (h *UserHandler) editProfile(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, h.maxUploadBytes) {
		return
	}
	req := service.EditProfileRequest{Description: r.FormValue("description")}

	var err error
	if req.Image, err = formFile(r, "image"); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if req.Banner, err = formFile(r, "banner"); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	profile, err := h.profileService.EditProfile(r.Context(), middleware.ViewerID(r.Context()), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}
