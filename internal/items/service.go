package items

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/model"
	"go.uber.org/zap"
)

// ServingDays are the accepted values of Item.ServingDay.
var ServingDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

type Service interface {
	// Add creates a menu item. The same name on the same serving day yields store.ErrConflict.
	Add(ctx context.Context, name, description, servingDay string) (*model.Item, error)
	// List returns every item, or only those served on servingDay.
	List(ctx context.Context, servingDay string) ([]model.Item, error)
}

type service struct {
	logger *zap.Logger
	repo   store.Repository
}

func NewService(logger *zap.Logger, repo store.Repository) Service {
	return &service{logger: logger, repo: repo}
}

func (s *service) Add(ctx context.Context, name, description, servingDay string) (*model.Item, error) {
	item := &model.Item{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		ServingDay:  normaliseDay(servingDay),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Items().Create(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Item added", zap.String("name", item.Name), zap.String("serving_day", item.ServingDay))
	return item, nil
}

func (s *service) List(ctx context.Context, servingDay string) ([]model.Item, error) {
	return s.repo.Items().List(ctx, normaliseDay(servingDay))
}

func normaliseDay(day string) string {
	return strings.ToLower(strings.TrimSpace(day))
}
