package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/nulzo/canteen-api/internal/store"
	"github.com/nulzo/canteen-api/internal/store/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAdminNotFound   = errors.New("admin not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidToken    = errors.New("invalid token")
	// ErrWrongRole is returned when a valid token is presented where the other role is required.
	ErrWrongRole = errors.New("token role not permitted")
)

// Role tells admin tokens from employee tokens. Both are signed with the same secret.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Claims is the payload of every token this service signs. ID is the admin
// or employee id depending on Role.
type Claims struct {
	Email string `json:"email"`
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	jwt.StandardClaims
}

// Require returns ErrWrongRole unless the token carries role.
func (c *Claims) Require(role Role) error {
	if c.Role != role {
		return fmt.Errorf("%w: want %s, got %q", ErrWrongRole, role, c.Role)
	}
	return nil
}

const DefaultEmployeeTokenTTL = 365 * 24 * time.Hour

type Service interface {
	CreateAdmin(ctx context.Context, email, fullName, password string) (*model.Admin, error)
	// Login checks the password and returns a signed token.
	Login(ctx context.Context, email, password string) (string, error)
	IssueToken(role Role, email, id string) (string, error)
	Verify(token string) (*Claims, error)
}

type Config struct {
	Secret   []byte
	TokenTTL time.Duration
	// EmployeeTokenTTL applies to employee tokens, which are handed out once by the seeder.
	EmployeeTokenTTL time.Duration
}

type service struct {
	logger *zap.Logger
	repo   store.Repository
	cfg    Config
	now    func() time.Time
}

func NewService(logger *zap.Logger, repo store.Repository, cfg Config) Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.EmployeeTokenTTL <= 0 {
		cfg.EmployeeTokenTTL = DefaultEmployeeTokenTTL
	}
	return &service{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *service) CreateAdmin(ctx context.Context, email, fullName, password string) (*model.Admin, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.Admin{
		ID:           uuid.New().String(),
		Email:        normaliseEmail(email),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Admins().Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Admin created", zap.String("id", admin.ID), zap.String("email", admin.Email))
	return admin, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.repo.Admins().GetByEmail(ctx, normaliseEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrAdminNotFound
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}

	return s.IssueToken(RoleAdmin, admin.Email, admin.ID)
}

func (s *service) IssueToken(role Role, email, id string) (string, error) {
	ttl := s.cfg.TokenTTL
	switch role {
	case RoleAdmin:
	case RoleEmployee:
		ttl = s.cfg.EmployeeTokenTTL
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := s.now()
	claims := &Claims{
		Email: email,
		ID:    id,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *service) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
