package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"certo/internal/certification/models"
	"certo/internal/notify"
	id "certo/pkg/domain"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/requestcontext"
)

// sweepNotifyConcurrency bounds the post-commit notification fan-out of an
// expiry sweep so a large batch does not flood the sinks.
const sweepNotifyConcurrency = 8

// issueCertificate creates the certificate for an approved process inside the
// caller's transaction and links it to the process. The caller persists the
// process afterwards. Folios come from a monotonic global sequence, so two
// certificates of the same competency and level in the same year never share
// one.
func issueCertificate(ctx context.Context, store Store, process *models.Process, candidate *models.Candidate, competency *models.Competency, issuedBy id.UserID, now time.Time) (*models.Certificate, []notify.Notification, error) {
	if _, err := store.FindCertificateByProcess(ctx, process.ID); err == nil {
		return nil, nil, dErrors.New(dErrors.CodeConflict, "certificate already issued for process")
	}
	if err := process.CanAttachCertificate(); err != nil {
		return nil, nil, err
	}

	sequence, err := store.NextFolioSequence(ctx)
	if err != nil {
		return nil, nil, translateStoreErr(err, "")
	}
	folio := models.BuildFolio(competency.Code, candidate.Level, now.Year(), sequence)

	cert, err := models.NewCertificate(id.CertificateID(uuid.New()), process.ID, folio, issuedBy, now, competency.CertificateValidity)
	if err != nil {
		return nil, nil, err
	}
	if err := store.CreateCertificate(ctx, cert); err != nil {
		if dErrors.HasCode(translateStoreErr(err, ""), dErrors.CodeConflict) {
			return nil, nil, dErrors.Newf(dErrors.CodeConflict, "folio %s already exists", folio)
		}
		return nil, nil, translateStoreErr(err, "process not found")
	}
	process.ApplyCertificate(cert.ID, now)

	notes := []notify.Notification{{
		UserID:   candidate.OwnerUserID,
		Template: notify.TemplateCertificateReady,
		Params: map[string]any{
			"certificate_id":    cert.ID.String(),
			"folio":             cert.Folio,
			"verification_hash": cert.VerificationHash,
		},
	}}
	return cert, notes, nil
}

// IssueCertificate issues the certificate for an already approved process
// that is missing one. The regular path issues inside SubmitEvaluation; this
// covers recovery after a partial failure or a manually approved process.
func (s *Service) IssueCertificate(ctx context.Context, processID id.ProcessID) (*models.Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "IssueCertificate")
	defer span.End()

	issuerID := requestcontext.ActorID(ctx)
	if issuerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeForbidden, "certificate issuance requires an authenticated issuer")
	}

	now := requestcontext.Now(ctx)
	var (
		certificate *models.Certificate
		pending     []notify.Notification
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		process, err := store.FindProcess(ctx, processID)
		if err != nil {
			return translateStoreErr(err, "process not found")
		}
		if process.Stage != models.StageAprobado {
			return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot issue a certificate for a process in stage %s", process.Stage)
		}
		candidate, err := store.FindCandidate(ctx, process.CandidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}
		competency, err := store.FindCompetency(ctx, candidate.CompetencyID)
		if err != nil {
			return translateStoreErr(err, "competency not found")
		}

		cert, notes, err := issueCertificate(ctx, store, process, candidate, competency, issuerID, now)
		if err != nil {
			return err
		}
		if err := store.UpdateProcess(ctx, process); err != nil {
			return translateStoreErr(err, "process not found")
		}
		certificate = cert
		pending = notes
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAll(ctx, pending)
	s.logAudit(ctx, "certificate_issued",
		"process_id", processID,
		"certificate_id", certificate.ID,
		"folio", certificate.Folio,
	)
	if s.metrics != nil {
		s.metrics.CertificatesIssued.Inc()
	}
	return certificate, nil
}

// SweepExpirations marks every certificate whose validity has lapsed as
// expired and notifies the holders. The sweep is idempotent: certificates
// already expired are skipped, so overlapping runs converge on the same
// state. Returns the number of certificates expired by this run.
func (s *Service) SweepExpirations(ctx context.Context, now time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "SweepExpirations")
	defer span.End()
	start := time.Now()

	var (
		expired []string
		pending []notify.Notification
	)
	err := s.tx.RunInTx(ctx, func(store Store) error {
		certs, err := store.ListExpiredCertificates(ctx, now)
		if err != nil {
			return translateStoreErr(err, "")
		}
		for _, cert := range certs {
			if err := cert.CanExpire(); err != nil {
				continue
			}
			cert.ApplyExpiration()
			if err := store.UpdateCertificate(ctx, cert); err != nil {
				return translateStoreErr(err, "certificate not found")
			}
			expired = append(expired, cert.Folio)

			process, err := store.FindProcess(ctx, cert.ProcessID)
			if err != nil {
				return translateStoreErr(err, "process not found")
			}
			candidate, err := store.FindCandidate(ctx, process.CandidateID)
			if err != nil {
				return translateStoreErr(err, "candidate not found")
			}
			pending = append(pending, notify.Notification{
				UserID:   candidate.OwnerUserID,
				Template: notify.TemplateCertificateExpired,
				Params: map[string]any{
					"certificate_id": cert.ID.String(),
					"folio":          cert.Folio,
				},
				CreatedAt: now,
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, folio := range expired {
		if s.cache != nil {
			s.cache.Invalidate(ctx, folio)
		}
	}
	if s.notifier != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(sweepNotifyConcurrency)
		for _, n := range pending {
			g.Go(func() error {
				if err := s.notifier.Send(gctx, n); err != nil {
					s.logger.WarnContext(gctx, "expiry notification failed",
						"template", n.Template,
						"user_id", n.UserID,
						"error", err,
					)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	if len(expired) > 0 {
		s.logAudit(ctx, "certificates_expired", "count", len(expired))
	}
	if s.metrics != nil {
		s.metrics.CertificatesExpired.Add(float64(len(expired)))
		s.metrics.ObserveSweep(start)
	}
	return len(expired), nil
}
