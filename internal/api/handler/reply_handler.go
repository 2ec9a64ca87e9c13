package handler

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"chall_zone/internal/api/middleware"
	"chall_zone/internal/app/service"
	"chall_zone/internal/common"

	"github.com/go-chi/chi/v5"
)

type ReplyHandler struct {
	replyService   *service.ReplyService
	rev            middleware.RevocationChecker
	maxUploadBytes int64
}

func NewReplyHandler(rs *service.ReplyService, rev middleware.RevocationChecker, maxUploadBytes int64) *ReplyHandler {
	return &ReplyHandler{replyService: rs, rev: rev, maxUploadBytes: maxUploadBytes}
}

// RegisterChallengeRoutes mounts reply creation under /challenges.
func (h *ReplyHandler) RegisterChallengeRoutes(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator(h.rev))
		authed.Post("/{id}/comments", h.createComment)
		authed.Post("/{id}/submissions", h.createSubmission) // multipart: title, body, script
	})
}

func (h *ReplyHandler) RegisterCommentRoutes(r chi.Router) {
	r.With(middleware.OptionalAuth(h.rev)).Get("/{id}", h.getComment)
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator(h.rev))
		authed.Put("/{id}", h.editComment)
		authed.Delete("/{id}", h.deleteComment)
	})
}

func (h *ReplyHandler) RegisterSubmissionRoutes(r chi.Router) {
	r.With(middleware.OptionalAuth(h.rev)).Get("/{id}", h.getSubmission)
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.Authenticator(h.rev))
		authed.Put("/{id}", h.editSubmission)
		authed.Delete("/{id}", h.deleteSubmission)
	})
}

func (h *ReplyHandler) RegisterAssetRoutes(r chi.Router) {
	r.Get("/{id}", h.getAsset)
}

func (h *ReplyHandler) createComment(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.replyService.CreateComment(r.Context(), middleware.ViewerID(r.Context()), challengeID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, comment)
}

func (h *ReplyHandler) getComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	comment, err := h.replyService.GetComment(r.Context(), middleware.ViewerID(r.Context()), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comment)
}

func (h *ReplyHandler) editComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req service.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.replyService.EditComment(r.Context(), middleware.ViewerID(r.Context()), id, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comment)
}

func (h *ReplyHandler) deleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.replyService.DeleteComment(r.Context(), middleware.ViewerID(r.Context()), id); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ReplyHandler) submissionForm(w http.ResponseWriter, r *http.Request) (service.SubmissionRequest, bool) {
	if !parseMultipart(w, r, h.maxUploadBytes) {
		return service.SubmissionRequest{}, false
	}
	script, err := formFile(r, "script")
	if err != nil {
		common.RespondWithDomainError(w, err)
		return service.SubmissionRequest{}, false
	}
	req := service.SubmissionRequest{
		Title:  strings.TrimSpace(r.FormValue("title")),
		Body:   r.FormValue("body"),
		Script: script,
	}
	if req.Title == "" {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request: title failed on 'required'")
		return service.SubmissionRequest{}, false
	}
	return req, true
}

func (h *ReplyHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	challengeID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, ok := h.submissionForm(w, r)
	if !ok {
		return
	}

	submission, err := h.replyService.CreateSubmission(r.Context(), middleware.ViewerID(r.Context()), challengeID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, submission)
}

func (h *ReplyHandler) getSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	submission, err := h.replyService.GetSubmission(r.Context(), middleware.ViewerID(r.Context()), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submission)
}

func (h *ReplyHandler) editSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, ok := h.submissionForm(w, r)
	if !ok {
		return
	}

	submission, err := h.replyService.EditSubmission(r.Context(), middleware.ViewerID(r.Context()), id, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, submission)
}

func (h *ReplyHandler) deleteSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.replyService.DeleteSubmission(r.Context(), middleware.ViewerID(r.Context()), id); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getAsset serves stored bytes so that browsers never execute them: only
// raster images keep a sniffed type, everything else is plain text or an
// opaque download.
func (h *ReplyHandler) getAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	asset, err := h.replyService.GetAsset(r.Context(), id)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	contentType := assetContentType(asset.Value)
	disposition := "inline"
	if contentType == "application/octet-stream" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, asset.Filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	w.WriteHeader(http.StatusOK)
	w.Write(asset.Value)
}

var inlineImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

func assetContentType(value []byte) string {
	sniffed := http.DetectContentType(value)
	if inlineImageTypes[sniffed] {
		return sniffed
	}
	if utf8.Valid(value) {
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}
