// Package service implements the certification lifecycle engine: the process
// state machine, the document gate, the evaluator allocator, the evaluation
// validator, the certificate issuer and the renewal initiator.
//
// Every public operation runs as one atomic unit against the store (via
// StoreTx), collects the notifications the transition owes, and emits them
// only after the transaction commits. Notification failures are logged and
// never surfaced to the caller of the triggering operation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"certo/internal/certification/metrics"
	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/platform/sentinel"
	"certo/pkg/requestcontext"
)

// Store is the persistence surface the engine needs. Implementations are
// pure I/O; conditional inserts report uniqueness facts as sentinel errors.
type Store interface {
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	FindCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	UpdateCandidate(ctx context.Context, c *models.Candidate) error

	CreateCompetency(ctx context.Context, c *models.Competency) error
	FindCompetency(ctx context.Context, competencyID id.CompetencyID) (*models.Competency, error)

	CreateProcessIfNoneActive(ctx context.Context, p *models.Process) error
	FindProcess(ctx context.Context, processID id.ProcessID) (*models.Process, error)
	FindActiveProcessByCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Process, error)
	UpdateProcess(ctx context.Context, p *models.Process) error
	CountAssignedInEvaluation(ctx context.Context, evaluatorID id.UserID) (int, error)

	CreateDocument(ctx context.Context, d *models.Document) error
	FindDocument(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	UpdateDocument(ctx context.Context, d *models.Document) error
	ListDocumentsByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Document, error)

	CreateEvaluator(ctx context.Context, e *models.Evaluator) error
	FindEvaluator(ctx context.Context, userID id.UserID) (*models.Evaluator, error)
	UpdateEvaluator(ctx context.Context, e *models.Evaluator) error
	ListEvaluators(ctx context.Context) ([]*models.Evaluator, error)

	CreateEvaluation(ctx context.Context, e *models.Evaluation) error
	FindEvaluationByProcess(ctx context.Context, processID id.ProcessID) (*models.Evaluation, error)

	CreateCertificate(ctx context.Context, c *models.Certificate) error
	FindCertificate(ctx context.Context, certificateID id.CertificateID) (*models.Certificate, error)
	FindCertificateByFolio(ctx context.Context, folio string) (*models.Certificate, error)
	FindCertificateByProcess(ctx context.Context, processID id.ProcessID) (*models.Certificate, error)
	UpdateCertificate(ctx context.Context, c *models.Certificate) error
	ListExpiredCertificates(ctx context.Context, now time.Time) ([]*models.Certificate, error)
	NextFolioSequence(ctx context.Context) (int64, error)

	CreateRenewal(ctx context.Context, r *models.Renewal) error
	FindRenewalByProcess(ctx context.Context, processID id.ProcessID) (*models.Renewal, error)
}

// VerificationCache is an optional read-through cache over certificate
// verification lookups. A nil cache disables caching.
type VerificationCache interface {
	Get(ctx context.Context, folio string) (*VerificationResult, bool)
	Set(ctx context.Context, folio string, result *VerificationResult)
	Invalidate(ctx context.Context, folio string)
}

// Service is the certification lifecycle engine.
type Service struct {
	tx       StoreTx
	notifier notify.Notifier
	cache    VerificationCache
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	admins   []id.UserID
}

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithNotifier(notifier notify.Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithVerificationCache(cache VerificationCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithAdmins sets the users notified on administrative events (renewals).
func WithAdmins(admins []id.UserID) Option {
	return func(s *Service) { s.admins = admins }
}

// New constructs the engine over a transactional store boundary.
func New(tx StoreTx, opts ...Option) *Service {
	s := &Service{
		tx:     tx,
		logger: slog.Default(),
		tracer: otel.Tracer("certification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// notifyAll emits the notifications a committed transaction owes. Failures
// are logged, never returned: delivery is best-effort by contract.
func (s *Service) notifyAll(ctx context.Context, pending []notify.Notification) {
	if s.notifier == nil {
		return
	}
	actor := requestcontext.ActorID(ctx)
	for _, n := range pending {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = requestcontext.Now(ctx)
		}
		if n.ActorID == "" && !actor.IsNil() {
			n.ActorID = actor.String()
		}
		if err := s.notifier.Send(ctx, n); err != nil {
			s.logger.WarnContext(ctx, "notification failed",
				"template", n.Template,
				"user_id", n.UserID,
				"error", err,
			)
		}
	}
}

// recordTransition counts one stage transition, when metrics are wired.
func (s *Service) recordTransition(stage models.ProcessStage) {
	if s.metrics != nil {
		s.metrics.StageTransitions.WithLabelValues(string(stage)).Inc()
	}
}

// logAudit records a state transition in the structured log stream.
func (s *Service) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append(attrs, "event", event, "log_type", "audit")
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	if actor := requestcontext.ActorID(ctx); !actor.IsNil() {
		args = append(args, "actor_id", actor)
	}
	s.logger.InfoContext(ctx, event, args...)
}

// translateStoreErr maps store sentinels onto domain error codes.
func translateStoreErr(err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "conflicting state")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "store failure")
	}
}
