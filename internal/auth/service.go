package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/spotlight2/coach/internal/auth/jwt"
	"github.com/spotlight2/coach/internal/db/queries"
	"github.com/spotlight2/coach/internal/db/repository"
)

// ErrUnknownLearner is returned when a refresh token names a deleted learner.
var ErrUnknownLearner = errors.New("unknown learner")

type learnerRepository interface {
	Create(ctx context.Context, displayName string) (queries.Learner, error)
	GetByID(ctx context.Context, learnerID uuid.UUID) (queries.Learner, error)
	Touch(ctx context.Context, learnerID uuid.UUID) error
}

// Service issues guest identities and tokens.
type Service struct {
	learners learnerRepository
	tokenMgr *jwt.Manager
	validate *validator.Validate
	logger   zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
}

// NewService creates an authentication service.
func NewService(learners learnerRepository, opts ServiceOptions, logger zerolog.Logger) *Service {
	return &Service{
		learners: learners,
		tokenMgr: jwt.NewManager(opts.TokenConfig),
		validate: validator.New(),
		logger:   logger.With().Str("component", "auth").Logger(),
	}
}

// CreateGuest stores a new learner and returns its tokens.
func (s *Service) CreateGuest(ctx context.Context, req GuestRequest) (*Learner, *TokenPair, error) {
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, fmt.Errorf("validate guest: %w", err)
	}
	if req.DisplayName == "" {
		req.DisplayName = defaultDisplayName
	}

	row, err := s.learners.Create(ctx, req.DisplayName)
	if err != nil {
		return nil, nil, fmt.Errorf("create guest: %w", err)
	}

	learner := &Learner{
		ID:          repository.UUID(row.LearnerID),
		DisplayName: row.DisplayName,
		CreatedAt:   row.CreatedAt.Time,
	}

	tokens, err := s.generateTokenPair(*learner)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info().Str("learner_id", learner.ID.String()).Msg("guest created")
	return learner, tokens, nil
}

// RefreshToken exchanges a refresh token for a new pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenMgr.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	row, err := s.learners.GetByID(ctx, claims.LearnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownLearner
	}
	if err != nil {
		return nil, fmt.Errorf("load learner: %w", err)
	}

	if err := s.learners.Touch(ctx, claims.LearnerID); err != nil {
		s.logger.Warn().Err(err).Str("learner_id", claims.LearnerID.String()).Msg("failed to touch learner")
	}

	return s.generateTokenPair(Learner{ID: claims.LearnerID, DisplayName: row.DisplayName})
}

// ValidateToken checks an access token.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(token)
}

func (s *Service) generateTokenPair(l Learner) (*TokenPair, error) {
	sub := jwt.Subject{LearnerID: l.ID, DisplayName: l.DisplayName}

	access, err := s.tokenMgr.GenerateAccessToken(sub)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokenMgr.GenerateRefreshToken(sub)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}
