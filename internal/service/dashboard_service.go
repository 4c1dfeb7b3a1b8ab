package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/evalia-api/internal/authz"
	"github.com/noah-isme/evalia-api/internal/dto"
	"github.com/noah-isme/evalia-api/internal/models"
	"github.com/noah-isme/evalia-api/internal/repository"
)

const dashboardRecentLimit = 5

// DashboardService aggregates a student's progress view.
type DashboardService interface {
	Overview(ctx context.Context, principal authz.Principal) (dto.DashboardResponse, error)
}

type dashboardService struct {
	submissions repository.SubmissionRepository
	exercises   repository.ExerciseRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewDashboardService builds a new dashboard service. The redis client may
// be nil, which disables caching.
func NewDashboardService(submissions repository.SubmissionRepository, exercises repository.ExerciseRepository, cache *redis.Client, cacheTTL time.Duration, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		submissions: submissions,
		exercises:   exercises,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) Overview(ctx context.Context, principal authz.Principal) (dto.DashboardResponse, error) {
	cacheKey := fmt.Sprintf("evalia:dashboard:%d", principal.ID)

	if cached, ok := s.fromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	response, err := s.build(ctx, principal)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	s.toCache(ctx, cacheKey, response)

	return response, nil
}

func (s *dashboardService) build(ctx context.Context, principal authz.Principal) (dto.DashboardResponse, error) {
	total, err := s.submissions.CountByStudent(ctx, principal.ID, "")
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	graded, err := s.submissions.CountByStudent(ctx, principal.ID, models.SubmissionStatusGraded)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	pending, err := s.submissions.CountByStudent(ctx, principal.ID, models.SubmissionStatusPending)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	average, err := s.submissions.AverageScore(ctx, principal.ID)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	recent, err := s.submissions.ListRecentGraded(ctx, principal.ID, dashboardRecentLimit)
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	open, err := s.exercises.List(ctx, repository.ExerciseFilter{VisibleOnly: true})
	if err != nil {
		return dto.DashboardResponse{}, err
	}

	return dto.DashboardResponse{
		TotalSubmissions:  total,
		GradedSubmissions: graded,
		PendingGrading:    pending,
		AverageScore:      average,
		RecentResults:     dto.NewSubmissionResponseSlice(recent),
		OpenExercises:     dto.NewExerciseResponseSlice(open),
	}, nil
}

func (s *dashboardService) fromCache(ctx context.Context, key string) (dto.DashboardResponse, bool) {
	if s.cache == nil {
		return dto.DashboardResponse{}, false
	}

	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache read")
		}
		return dto.DashboardResponse{}, false
	}

	var response dto.DashboardResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return dto.DashboardResponse{}, false
	}

	return response, true
}

func (s *dashboardService) toCache(ctx context.Context, key string, response dto.DashboardResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("dashboard cache write")
	}
}
