package employees

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/model"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, name, email, phoneNumber string) (*model.Employee, error)
	Get(ctx context.Context, id string) (*model.Employee, error)
	List(ctx context.Context) ([]model.Employee, error)
}

type service struct {
	logger *zap.Logger
	repo   store.Repository
}

func NewService(logger *zap.Logger, repo store.Repository) Service {
	return &service{logger: logger, repo: repo}
}

// Create registers an employee. A duplicate email yields store.ErrConflict.
func (s *service) Create(ctx context.Context, name, email, phoneNumber string) (*model.Employee, error) {
	e := &model.Employee{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		PhoneNumber: strings.TrimSpace(phoneNumber),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Employees().Create(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("Employee created", zap.String("id", e.ID), zap.String("email", e.Email))
	return e, nil
}

func (s *service) Get(ctx context.Context, id string) (*model.Employee, error) {
	return s.repo.Employees().Get(ctx, id)
}

func (s *service) List(ctx context.Context) ([]model.Employee, error) {
	return s.repo.Employees().List(ctx)
}
