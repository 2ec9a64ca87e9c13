package service

import (
	"context"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
	"chall_zone/internal/domain/permission"
	"chall_zone/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

type ChallengeService struct {
	store Store
	log   *logrus.Logger
}

func NewChallengeService(store Store, log *logrus.Logger) *ChallengeService {
	return &ChallengeService{store: store, log: log}
}

type ChallengeRequest struct {
	Title              string `json:"title" validate:"required,max=200"`
	Body               string `json:"body" validate:"required"`
	CategoryID         int64  `json:"category_id" validate:"required,min=1"`
	AcceptsSubmissions bool   `json:"accepts_submissions"`
}

func (r ChallengeRequest) editable() model.ChallengeEditable {
	return model.ChallengeEditable{
		Title:              r.Title,
		Body:               r.Body,
		CategoryID:         r.CategoryID,
		AcceptsSubmissions: r.AcceptsSubmissions,
	}
}

func (s *ChallengeService) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		var err error
		categories, err = repo.GetCategories(ctx)
		return err
	})
	return categories, err
}

// List returns a page of challenges, filtered by category when one is given.
func (s *ChallengeService) List(ctx context.Context, viewerID int64, categoryID *int64, page int) ([]*model.ChallengeHusk, error) {
	var challenges []*model.ChallengeHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		if categoryID != nil {
			if err := validateCategory(ctx, repo, *categoryID); err != nil {
				return err
			}
		}
		var err error
		challenges, err = repo.GetChallenges(ctx, viewerID, categoryID, page)
		return err
	})
	return challenges, err
}

func (s *ChallengeService) Search(ctx context.Context, viewerID int64, text string, categoryID *int64, page int) ([]*model.ChallengeHusk, error) {
	var challenges []*model.ChallengeHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		if categoryID != nil {
			if err := validateCategory(ctx, repo, *categoryID); err != nil {
				return err
			}
		}
		var err error
		challenges, err = repo.SearchChallenges(ctx, text, viewerID, categoryID, page)
		return err
	})
	return challenges, err
}

func (s *ChallengeService) Get(ctx context.Context, viewerID, id int64) (*model.ChallengeHusk, error) {
	var challenge *model.ChallengeHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		var err error
		challenge, err = repo.GetChallenge(ctx, viewerID, id)
		return err
	})
	return challenge, err
}

// Replies returns a page of the challenge's comments and submissions.
func (s *ChallengeService) Replies(ctx context.Context, viewerID, id int64, page int) ([]model.Reply, error) {
	var replies []model.Reply
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		ok, err := repo.ChallengeExists(ctx, id)
		if err := requireFound(ok, err, common.EntityChallenge, id); err != nil {
			return err
		}
		replies, err = repo.GetChallengeReplies(ctx, viewerID, id, page)
		return err
	})
	return replies, err
}

func (s *ChallengeService) Create(ctx context.Context, userID int64, req ChallengeRequest) (*model.ChallengeHusk, error) {
	if err := requireText("title", req.Title); err != nil {
		return nil, err
	}

	var challenge *model.ChallengeHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionCreate, permission.TargetChallenge, 0); err != nil {
			return err
		}
		if err := validateCategory(ctx, repo, req.CategoryID); err != nil {
			return err
		}

		id, err := repo.CreateChallenge(ctx, userID, req.editable())
		if err != nil {
			return err
		}
		challenge, err = repo.GetChallenge(ctx, userID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"challenge_id": challenge.ID, "user_id": userID}).Info("challenge created")
	return challenge, nil
}

func (s *ChallengeService) Edit(ctx context.Context, userID, id int64, req ChallengeRequest) (*model.ChallengeHusk, error) {
	if err := requireText("title", req.Title); err != nil {
		return nil, err
	}

	var challenge *model.ChallengeHusk
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		existing, err := repo.GetChallenge(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionEdit, permission.TargetChallenge, existing.AuthorID); err != nil {
			return err
		}
		if err := validateCategory(ctx, repo, req.CategoryID); err != nil {
			return err
		}

		if err := repo.EditChallenge(ctx, id, req.editable()); err != nil {
			return err
		}
		challenge, err = repo.GetChallenge(ctx, userID, id)
		return err
	})
	return challenge, err
}

// Delete removes the challenge together with its replies and their votes.
func (s *ChallengeService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.Do(ctx, func(repo *repository.Repository) error {
		_, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		existing, err := repo.GetChallenge(ctx, userID, id)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionDelete, permission.TargetChallenge, existing.AuthorID); err != nil {
			return err
		}
		if err := repo.RemoveChallenge(ctx, id); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"challenge_id": id, "user_id": userID}).Info("challenge deleted")
		return nil
	})
}
