package services

import (
	"context"
	"time"

	"betportal/internal/models"
	"betportal/pkg/database"
	apperrors "betportal/pkg/errors"

	"github.com/google/uuid"
)

type BannerService struct {
	store *database.Store
	media *MediaService
}

type BannerInput struct {
	Image string `json:"image" validate:"required"`
	Link  string `json:"link"`
	Title string `json:"title"`
}

func NewBannerService(store *database.Store, media *MediaService) *BannerService {
	return &BannerService{store: store, media: media}
}

func (s *BannerService) List(ctx context.Context) ([]models.Banner, error) {
	return database.ReadList[models.Banner](ctx, s.store, database.Banners)
}

func (s *BannerService) Create(ctx context.Context, input BannerInput) (*models.Banner, error) {
	image, err := s.media.StoreBase64(ctx, "banners", input.Image)
	if err != nil {
		return nil, err
	}
	banner := models.Banner{
		ID:        uuid.NewString(),
		Image:     image,
		Link:      input.Link,
		Title:     input.Title,
		CreatedAt: time.Now().UTC(),
	}
	_, err = database.UpdateList(ctx, s.store, database.Banners, func(banners []models.Banner) ([]models.Banner, error) {
		return append(banners, banner), nil
	})
	if err != nil {
		return nil, err
	}
	return &banner, nil
}

func (s *BannerService) Delete(ctx context.Context, id string) error {
	_, err := database.UpdateList(ctx, s.store, database.Banners, func(banners []models.Banner) ([]models.Banner, error) {
		for i := range banners {
			if banners[i].ID == id {
				return append(banners[:i], banners[i+1:]...), nil
			}
		}
		return nil, apperrors.NotFound("banner", nil)
	})
	return err
}
