package service

import (
	"context"

	"chall_zone/internal/domain/model"
	"chall_zone/internal/domain/repository"
)

type VoteService struct {
	store Store
}

func NewVoteService(store Store) *VoteService {
	return &VoteService{store: store}
}

// Vote records the caller's vote. It is idempotent and does not check that
// the target exists.
func (s *VoteService) Vote(ctx context.Context, userID int64, target model.VoteTarget) error {
	return s.store.Do(ctx, func(repo *repository.Repository) error {
		if _, _, err := loadActor(ctx, repo, userID); err != nil {
			return err
		}
		return repo.VoteFor(ctx, target, userID)
	})
}

func (s *VoteService) Unvote(ctx context.Context, userID int64, target model.VoteTarget) error {
	return s.store.Do(ctx, func(repo *repository.Repository) error {
		if _, _, err := loadActor(ctx, repo, userID); err != nil {
			return err
		}
		return repo.RemoveVoteFrom(ctx, target, userID)
	})
}
