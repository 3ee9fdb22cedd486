package services

import (
	"context"

	"betportal/internal/events"
	"betportal/internal/models"
	"betportal/pkg/database"
	"betportal/pkg/logger"
)

// SettingsService owns the free-form config bag
type SettingsService struct {
	store     *database.Store
	publisher events.Publisher
}

func NewSettingsService(store *database.Store, publisher events.Publisher) *SettingsService {
	return &SettingsService{store: store, publisher: publisher}
}

// Get returns the whole bag; a missing or corrupt document reads as empty
func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	obj, err := database.ReadObject(ctx, s.store, database.Config)
	if err != nil {
		return models.Settings{}, err
	}
	return models.Settings(obj), nil
}

// Update merges patch into the bag. Changing chatEnabled is announced to
// every client.
func (s *SettingsService) Update(ctx context.Context, patch map[string]interface{}) (models.Settings, error) {
	obj, err := database.MergeObject(ctx, s.store, database.Config, patch)
	if err != nil {
		return nil, err
	}
	settings := models.Settings(obj)

	if _, ok := patch[models.ConfigChatEnabled]; ok {
		s.publisher.Publish(events.StateChanged{Enabled: settings.ChatEnabled()})
	}
	return settings, nil
}

// ChatEnabled reports whether the main chat accepts messages from users
func (s *SettingsService) ChatEnabled(ctx context.Context) bool {
	settings, err := s.Get(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to read config, assuming chat is enabled")
		return true
	}
	return settings.ChatEnabled()
}

// SetChatEnabled persists the main chat flag and announces it
func (s *SettingsService) SetChatEnabled(ctx context.Context, enabled bool) error {
	_, err := s.Update(ctx, map[string]interface{}{models.ConfigChatEnabled: enabled})
	return err
}
