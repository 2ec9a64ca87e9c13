package handler

import (
	"net/http"

	"chall_zone/internal/api/middleware"
	"chall_zone/internal/app/service"
	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type VoteHandler struct {
	voteService *service.VoteService
	rev         middleware.RevocationChecker
}

func NewVoteHandler(vs *service.VoteService, rev middleware.RevocationChecker) *VoteHandler {
	return &VoteHandler{voteService: vs, rev: rev}
}

func (h *VoteHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator(h.rev))
	r.Post("/{kind}/{id}", h.vote)     // POST /api/v1/votes/comment/7
	r.Delete("/{kind}/{id}", h.unvote) // DELETE /api/v1/votes/comment/7
}

func voteTarget(w http.ResponseWriter, r *http.Request) (model.VoteTarget, bool) {
	kind, err := model.ParseContentKind(chi.URLParam(r, "kind"))
	if err != nil {
		// an unknown kind in a URL is a client mistake, not a storage fault
		common.RespondWithError(w, http.StatusBadRequest, err.Error())
		return model.VoteTarget{}, false
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return model.VoteTarget{}, false
	}
	return model.VoteTarget{Kind: kind, ID: id}, true
}

func (h *VoteHandler) vote(w http.ResponseWriter, r *http.Request) {
	target, ok := voteTarget(w, r)
	if !ok {
		return
	}
	if err := h.voteService.Vote(r.Context(), middleware.ViewerID(r.Context()), target); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VoteHandler) unvote(w http.ResponseWriter, r *http.Request) {
	target, ok := voteTarget(w, r)
	if !ok {
		return
	}
	if err := h.voteService.Unvote(r.Context(), middleware.ViewerID(r.Context()), target); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
