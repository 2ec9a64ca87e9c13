package service

import (
	"context"

	"chall_zone/internal/domain/model"
	"chall_zone/internal/domain/permission"
	"chall_zone/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

type ProfileService struct {
	store Store
	log   *logrus.Logger
}

func NewProfileService(store Store, log *logrus.Logger) *ProfileService {
	return &ProfileService{store: store, log: log}
}

// ProfileView is a public profile page.
type ProfileView struct {
	User          model.UserSummary `json:"user"`
	Profile       model.Profile     `json:"profile"`
	ReceivedVotes model.VoteStats   `json:"received_votes"`
	GivenVotes    model.VoteStats   `json:"given_votes"`
}

// EditProfileRequest replaces the description. A nil Image or Banner keeps
// the current asset.
type EditProfileRequest struct {
	Description string
	Image       *Upload
	Banner      *Upload
}

func (s *ProfileService) GetProfile(ctx context.Context, username string) (*ProfileView, error) {
	var view *ProfileView
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		user, err := repo.GetUser(ctx, username)
		if err != nil {
			return err
		}
		received, err := repo.GetReceivedVotes(ctx, user.ID)
		if err != nil {
			return err
		}
		given, err := repo.GetGivenVotes(ctx, user.ID)
		if err != nil {
			return err
		}
		view = &ProfileView{
			User: model.UserSummary{
				ID:           user.ID,
				Username:     user.Username,
				IsAdmin:      user.IsAdmin,
				ImageAssetID: user.Profile.ImageAssetID,
			},
			Profile:       user.Profile,
			ReceivedVotes: received,
			GivenVotes:    given,
		}
		return nil
	})
	return view, err
}

// EditProfile stores new assets and swaps the profile's references in one
// transaction, reading the current references under a row lock. Superseded assets are removed only after that commits; a
// failed cleanup leaves an orphan asset and is logged.
func (s *ProfileService) EditProfile(ctx context.Context, userID int64, req EditProfileRequest) (*model.Profile, error) {
	var profile *model.Profile
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		user, actor, err := loadActor(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := permission.Check(actor, permission.ActionEdit, permission.TargetProfile, user.ID); err != nil {
			return err
		}

		var superseded []int64
		err = repo.InTx(ctx, func(tx *repository.Repository) error {
			current, err := tx.LockProfile(ctx, user.ID)
			if err != nil {
				return err
			}
			fields := model.ProfileEditable{
				Description:   req.Description,
				ImageAssetID:  current.ImageAssetID,
				BannerAssetID: current.BannerAssetID,
			}

			if req.Image != nil {
				id, err := tx.CreateAsset(ctx, sanitizeFilename(req.Image.Filename), req.Image.Bytes)
				if err != nil {
					return err
				}
				if current.ImageAssetID != nil {
					superseded = append(superseded, *current.ImageAssetID)
				}
				fields.ImageAssetID = &id
			}
			if req.Banner != nil {
				id, err := tx.CreateAsset(ctx, sanitizeFilename(req.Banner.Filename), req.Banner.Bytes)
				if err != nil {
					return err
				}
				if current.BannerAssetID != nil {
					superseded = append(superseded, *current.BannerAssetID)
				}
				fields.BannerAssetID = &id
			}
			return tx.EditProfile(ctx, user.ID, fields)
		})
		if err != nil {
			return err
		}

		for _, id := range superseded {
			if err := repo.DeleteAsset(ctx, id); err != nil {
				s.log.WithError(err).WithField("asset_id", id).Warn("failed to delete superseded profile asset")
			}
		}

		profile, err = repo.GetProfile(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *ProfileService) SearchUsers(ctx context.Context, text string, page int) ([]model.UserSummary, error) {
	var users []model.UserSummary
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		var err error
		users, err = repo.SearchUsers(ctx, text, page)
		return err
	})
	return users, err
}

// UserContent is the activity feed of a profile.
func (s *ProfileService) UserContent(ctx context.Context, viewerID int64, username string, page int) ([]model.FeedItem, error) {
	var items []model.FeedItem
	err := s.store.Do(ctx, func(repo *repository.Repository) error {
		user, err := repo.GetUser(ctx, username)
		if err != nil {
			return err
		}
		items, err = repo.GetUserContent(ctx, viewerID, user.ID, page)
		return err
	})
	return items, err
}
