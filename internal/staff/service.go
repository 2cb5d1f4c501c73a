package staff

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"barber-booking/internal/auth"
	"barber-booking/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrDuplicate          = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSetupKey    = errors.New("invalid setup key")
	ErrNotConfigured      = errors.New("staff accounts not configured")
)

// ConfigAdminID identifies the operator configured through environment
// variables rather than the users collection.
const ConfigAdminID = "config-admin"

type CreateRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff"`
	SetupKey string `json:"setupKey,omitempty"`
}

type PasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Fallback is the single admin account read from configuration. It works
// even before any user has been stored.
type Fallback struct {
	Username string
	Password string
	SetupKey string
}

type Service struct {
	repo     Repository
	fallback Fallback
	location *time.Location
	log      *slog.Logger
}

func NewService(repo Repository, fallback Fallback, location *time.Location, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		fallback: fallback,
		location: location,
		log:      log.With(slog.String("component", "staff")),
	}
}

func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// Authenticate checks stored accounts first, then the configured admin.
func (s *Service) Authenticate(ctx context.Context, username, password string) (auth.Identity, error) {
	username = normalizeUsername(username)
	if s.repo != nil {
		u, err := s.repo.FindByUsername(ctx, username)
		switch {
		case err == nil:
			if auth.ComparePassword(u.PasswordHash, password) != nil {
				return auth.Identity{}, ErrInvalidCredentials
			}
			if auth.NeedsRehash(u.PasswordHash) {
				s.upgradeHash(ctx, u.ID, password)
			}
			return auth.Identity{ID: u.ID, Username: u.Username, Role: u.Role}, nil
		case !errors.Is(err, ErrNotFound):
			return auth.Identity{}, err
		}
	}

	if s.fallback.Username == "" || s.fallback.Password == "" {
		return auth.Identity{}, ErrInvalidCredentials
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(normalizeUsername(s.fallback.Username))) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.fallback.Password)) == 1
	if !userOK || !passOK {
		return auth.Identity{}, ErrInvalidCredentials
	}
	return auth.Identity{ID: ConfigAdminID, Username: username, Role: models.RoleAdmin}, nil
}

// upgradeHash rewrites a hash made with an older cost. Failures only cost
// a slower login next time.
func (s *Service) upgradeHash(ctx context.Context, id, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		_, err = s.repo.SetPassword(ctx, id, hash, time.Now().In(s.location))
	}
	if err != nil {
		s.log.Warn("staff rehash: failed", slog.String("user_id", id), slog.String("error", err.Error()))
		return
	}
	s.log.Info("staff rehash: ok", slog.String("user_id", id))
}

// Register creates an admin account using the setup key, for bootstrapping
// a deployment without shell access.
func (s *Service) Register(ctx context.Context, req CreateRequest) (models.User, error) {
	if s.fallback.SetupKey == "" {
		return models.User{}, ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(req.SetupKey), []byte(s.fallback.SetupKey)) != 1 {
		s.log.Warn("staff register: invalid setup key", slog.String("username", req.Username))
		return models.User{}, ErrInvalidSetupKey
	}
	req.Role = models.RoleAdmin
	return s.Create(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (models.User, error) {
	if s.repo == nil {
		return models.User{}, ErrNotConfigured
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return models.User{}, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleStaff
	}

	now := time.Now().In(s.location)
	u := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Username:     normalizeUsername(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return models.User{}, err
	}
	s.log.Info("staff create: ok", slog.String("user_id", u.ID), slog.String("role", u.Role))
	return u, nil
}

func (s *Service) SetPassword(ctx context.Context, id, password string) (models.User, error) {
	if s.repo == nil {
		return models.User{}, ErrNotConfigured
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}
	u, err := s.repo.SetPassword(ctx, strings.TrimSpace(id), hash, time.Now().In(s.location))
	if err != nil {
		return models.User{}, err
	}
	s.log.Info("staff password: updated", slog.String("user_id", u.ID))
	return u, nil
}
