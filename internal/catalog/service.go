package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"barber-booking/internal/cache"
	"barber-booking/internal/models"
	"barber-booking/internal/utils"
)

const (
	cacheKeyAll = "services:all"

	MinDuration = 5
	MaxDuration = 240
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrDuplicateName   = errors.New("service name already exists")
	ErrInvalidDuration = errors.New("service duration must be between 5 and 240 minutes")
	ErrInvalidPrice    = errors.New("service price must not be negative")
	ErrInvalidName     = errors.New("service name is required")
)

type ServiceInput struct {
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description" validate:"max=500"`
	Duration    int    `json:"duration" validate:"required,gte=5,duration"`
	Price       int    `json:"price" validate:"gte=0"`
}

// Service is the read-mostly service catalog. Reads go through the cache
// with a short TTL; writes invalidate it.
type Service struct {
	repo     Repository
	cache    cache.Cache
	ttl      time.Duration
	location *time.Location
	log      *slog.Logger
}

func NewService(repo Repository, c cache.Cache, ttl time.Duration, location *time.Location, log *slog.Logger) *Service {
	if c == nil {
		c = cache.NewNoop()
	}
	return &Service{
		repo:     repo,
		cache:    c,
		ttl:      ttl,
		location: location,
		log:      log.With(slog.String("component", "catalog")),
	}
}

func (s *Service) List(ctx context.Context) ([]models.Service, error) {
	return cache.GetOrRefresh(ctx, s.cache, cacheKeyAll, s.ttl, s.repo.List)
}

func (s *Service) Get(ctx context.Context, id int) (models.Service, error) {
	items, err := s.List(ctx)
	if err != nil {
		return models.Service{}, err
	}
	for _, svc := range items {
		if svc.ID == id {
			return svc, nil
		}
	}
	// the cached list may predate a newly created service
	return s.repo.GetByID(ctx, id)
}

// Durations maps service id to duration in minutes.
func (s *Service) Durations(ctx context.Context) (map[int]int, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]int, len(items))
	for _, svc := range items {
		out[svc.ID] = svc.Duration
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, in ServiceInput) (models.Service, error) {
	if err := validateInput(in); err != nil {
		return models.Service{}, err
	}
	id, err := s.repo.NextID(ctx)
	if err != nil {
		return models.Service{}, err
	}

	now := stamp(s.location)
	svc := models.Service{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Slug:        utils.Slugify(in.Name),
		Description: strings.TrimSpace(in.Description),
		Duration:    in.Duration,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return models.Service{}, err
	}
	s.invalidate(ctx)
	s.log.Info("catalog create: ok", slog.Int("service_id", svc.ID), slog.String("name", svc.Name))
	return svc, nil
}

func (s *Service) Update(ctx context.Context, id int, in ServiceInput) (models.Service, error) {
	if err := validateInput(in); err != nil {
		return models.Service{}, err
	}
	updated, err := s.repo.Update(ctx, models.Service{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Slug:        utils.Slugify(in.Name),
		Description: strings.TrimSpace(in.Description),
		Duration:    in.Duration,
		Price:       in.Price,
		UpdatedAt:   stamp(s.location),
	})
	if err != nil {
		return models.Service{}, err
	}
	s.invalidate(ctx)
	s.log.Info("catalog update: ok", slog.Int("service_id", id))
	return updated, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, cacheKeyAll); err != nil {
		s.log.Warn("catalog cache: invalidate failed", slog.String("error", err.Error()))
	}
}

func stamp(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

func validateInput(in ServiceInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidName
	}
	if in.Duration < MinDuration || in.Duration > MaxDuration {
		return ErrInvalidDuration
	}
	if in.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}
