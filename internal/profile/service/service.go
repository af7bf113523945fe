package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"signup/internal/platform/metrics"
	"signup/internal/profile/models"
	"signup/pkg/domain"
	"signup/pkg/secrets"
)

// Store is the profile persistence port. Implementations enforce the unique
// indexes on username and email and return *store.DuplicateKeyError or
// *store.SchemaError when a write is rejected.
type Store interface {
	Insert(ctx context.Context, p *models.Profile) error
	InsertMany(ctx context.Context, profiles []*models.Profile) error
	FindByUsername(ctx context.Context, username string) (*models.Profile, error)
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context) ([]*models.Profile, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}

// Hasher turns a credential into a one-way hash.
type Hasher interface {
	Hash(secret string) (string, error)
}

// Service owns registration, availability lookups and the development data
// utilities.
type Service struct {
	store      Store
	hasher     Hasher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	production bool
	newID      func() domain.ProfileID
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithHasher overrides the default bcrypt hasher.
func WithHasher(h Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithProduction marks the deployment as production, which refuses Reset.
func WithProduction(production bool) Option {
	return func(s *Service) {
		s.production = production
	}
}

// WithTracer overrides the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithIDGenerator sets the profile ID source; tests use it for stable IDs.
func WithIDGenerator(fn func() domain.ProfileID) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		hasher: secrets.NewHasher(bcrypt.DefaultCost),
		logger: slog.Default(),
		tracer: otel.Tracer("signup/internal/profile/service"),
		newID:  domain.NewProfileID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) incrementRegistrations() {
	if s.metrics != nil {
		s.metrics.IncrementRegistrations()
	}
}

func (s *Service) rejected(reason string) {
	if s.metrics != nil {
		s.metrics.RegistrationRejected(reason)
	}
}
