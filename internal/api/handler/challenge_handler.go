package handler

import (
	"net/http"

	"chall_zone/internal/api/middleware"
	"chall_zone/internal/app/service"
	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ChallengeHandler struct {
	challengeService *service.ChallengeService
	rev              middleware.RevocationChecker
}

func NewChallengeHandler(cs *service.ChallengeService, rev middleware.RevocationChecker) *ChallengeHandler {
	return &ChallengeHandler{challengeService: cs, rev: rev}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(public chi.Router) {
		public.Use(middleware.OptionalAuth(h.rev))
		public.Get("/", h.listChallenges)         // GET /api/v1/challenges?category=1&q=golf&page=0
		public.Get("/{id}", h.getChallenge)       // GET /api/v1/challenges/42
		public.Get("/{id}/replies", h.getReplies) // GET /api/v1/challenges/42/replies?page=0
	})

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator(h.rev))
		authed.Post("/", h.createChallenge)
		authed.Put("/{id}", h.editChallenge)
		authed.Delete("/{id}", h.deleteChallenge)
	})
}

// ListCategories serves the category list at /api/v1/categories.
func (h *ChallengeHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.challengeService.Categories(r.Context())
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *ChallengeHandler) listChallenges(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := category(w, r)
	if !ok {
		return
	}
	viewer := middleware.ViewerID(r.Context())

	var (
		challenges []*model.ChallengeHusk
		err        error
	)
	if text := r.URL.Query().Get("q"); text != "" {
		challenges, err = h.challengeService.Search(r.Context(), viewer, text, categoryID, page(r))
	} else {
		challenges, err = h.challengeService.List(r.Context(), viewer, categoryID, page(r))
	}
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) getChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	challenge, err := h.challengeService.Get(r.Context(), middleware.ViewerID(r.Context()), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) getReplies(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	replies, err := h.challengeService.Replies(r.Context(), middleware.ViewerID(r.Context()), id, page(r))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, feedEntries(replies))
}

func (h *ChallengeHandler) createChallenge(w http.ResponseWriter, r *http.Request) {
	var req service.ChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	challenge, err := h.challengeService.Create(r.Context(), middleware.ViewerID(r.Context()), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, challenge)
}

func (h *ChallengeHandler) editChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.ChallengeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	challenge, err := h.challengeService.Edit(r.Context(), middleware.ViewerID(r.Context()), id, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, challenge)
}

func (h *ChallengeHandler) deleteChallenge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.challengeService.Delete(r.Context(), middleware.ViewerID(r.Context()), id); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
