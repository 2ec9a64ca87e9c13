package service

import (
	"context"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
	"chall_zone/internal/domain/permission"
	"chall_zone/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

// ReplyService manages comments, submissions and the assets they expose.
type ReplyService struct {
	store Store
	log   *logrus.Logger
}

func NewReplyService(store Store, log *logrus.Logger) *ReplyService {
	return &ReplyService{store: store, log: log}
}

type CommentRequest struct {
	Body string `json:"body" validate:"required,max=10000"`
}

// SubmissionRequest creates or edits a submission. On edit a nil Script keeps
// the current solution file.
type SubmissionRequest struct {
	Title  string
	Body   string
	Script *Upload
}

func (s *ReplyService) CreateComment(ctx context.Context, userID, challengeID int64, req CommentRequest) (*model.CommentHusk, error) {
	if err := requireText("body", req.Body); err != nil {
		return nil, err
	}

	var comment *model.CommentHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionCreate, permission.TargetComment, 0); err != nil {
			return err
		}
		ok, err := repo.ChallengeExists(ctx, challengeID)
		if err := requireFound(ok, err, common.EntityChallenge, challengeID); err != nil {
			return err
		}

		id, err := repo.CreateComment(ctx, userID, challengeID, req.Body)
		if err != nil {
			return err
		}
		comment, err = repo.GetComment(ctx, userID, id)
		return err
	})
	return comment, err
}

func (s *ReplyService) GetComment(ctx context.Context, viewerID, id int64) (*model.CommentHusk, error) {
	var comment *model.CommentHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		var err error
		comment, err = repo.GetComment(ctx, viewerID, id)
		return err
	})
	return comment, err
}

func (s *ReplyService) EditComment(ctx context.Context, userID, id int64, req CommentRequest) (*model.CommentHusk, error) {
	if err := requireText("body", req.Body); err != nil {
		return nil, err
	}

	var comment *model.CommentHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		existing, err := repo.GetComment(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionEdit, permission.TargetComment, existing.AuthorID); err != nil {
			return err
		}
		if err := repo.EditComment(ctx, id, model.CommentEditable{Body: req.Body}); err != nil {
			return err
		}
		comment, err = repo.GetComment(ctx, userID, id)
		return err
	})
	return comment, err
}

func (s *ReplyService) DeleteComment(ctx context.Context, userID, id int64) error {
	return s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		existing, err := repo.GetComment(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionDelete, permission.TargetComment, existing.AuthorID); err != nil {
			return err
		}
		return repo.RemoveComment(ctx, id)
	})
}

// CreateSubmission attaches a solution to a challenge that accepts them. The
// script is stored as an inert asset.
func (s *ReplyService) CreateSubmission(ctx context.Context, userID, challengeID int64, req SubmissionRequest) (*model.SubmissionHusk, error) {
	if err := requireText("title", req.Title); err != nil {
		return nil, err
	}

	var submission *model.SubmissionHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionCreate, permission.TargetSubmission, 0); err != nil {
			return err
		}

		id, err := repo.CreateSubmission(ctx, userID, challengeID, req.Title, req.Body, req.Script.script())
		if err != nil {
			return err
		}
		submission, err = repo.GetSubmission(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"submission_id": submission.ID, "challenge_id": challengeID}).Info("submission created")
	return submission, nil
}

func (s *ReplyService) GetSubmission(ctx context.Context, viewerID, id int64) (*model.SubmissionHusk, error) {
	var submission *model.SubmissionHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		var err error
		submission, err = repo.GetSubmission(ctx, viewerID, id)
		return err
	})
	return submission, err
}

// EditSubmission updates a submission. A new script replaces the old asset,
// which is deleted only once the submission points at the new one.
func (s *ReplyService) EditSubmission(ctx context.Context, userID, id int64, req SubmissionRequest) (*model.SubmissionHusk, error) {
	if err := requireText("title", req.Title); err != nil {
		return nil, err
	}

	var submission *model.SubmissionHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		existing, err := repo.GetSubmission(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionEdit, permission.TargetSubmission, existing.AuthorID); err != nil {
			return err
		}

		fields := model.SubmissionEditable{Title: req.Title, Body: req.Body, Script: req.Script.script()}
		if err := repo.EditSubmission(ctx, id, fields); err != nil {
			return err
		}
		submission, err = repo.GetSubmission(ctx, userID, id)
		return err
	})
	return submission, err
}

func (s *ReplyService) DeleteSubmission(ctx context.Context, userID, id int64) error {
	return s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		existing, err := repo.GetSubmission(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionDelete, permission.TargetSubmission, existing.AuthorID); err != nil {
			return err
		}
		return repo.RemoveSubmission(ctx, id)
	})
}

func (s *ReplyService) GetAsset(ctx context.Context, id int64) (*model.Asset, error) {
	var asset *model.Asset
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		var err error
		asset, err = repo.GetAsset(ctx, id)
		return err
	})
	return asset, err
}
