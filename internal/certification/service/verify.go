package service

import (
	"context"
	"time"

	"certo/internal/certification/models"
	dErrors "certo/pkg/domain-errors"
	"certo/pkg/requestcontext"
)

// VerificationResult is the public view of a certificate lookup. It exposes
// only what a third party verifying a credential needs; internal identifiers
// beyond the folio stay out of it.
type VerificationResult struct {
	Valid          bool       `json:"valid"`
	Folio          string     `json:"folio"`
	HolderName     string     `json:"holder_name"`
	Competency     string     `json:"competency"`
	CompetencyCode string     `json:"competency_code"`
	Level          int        `json:"level"`
	IssueDate      time.Time  `json:"issue_date"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	StatusMessage  string     `json:"status_message"`

	// Hash and Status are cached alongside the public fields so a cache
	// hit can still check a supplied hash and recompute validity at the
	// caller's clock.
	Hash   string                   `json:"hash"`
	Status models.CertificateStatus `json:"status"`
}

// refresh recomputes the time-dependent fields at now. Cached entries carry
// the durable facts; validity is always judged against the current clock.
func (r *VerificationResult) refresh(now time.Time) {
	switch {
	case r.ExpiryDate != nil && now.After(*r.ExpiryDate):
		r.Valid = false
		r.StatusMessage = "expired"
	case r.Status != models.CertificateStatusActive:
		r.Valid = false
		r.StatusMessage = "inactive"
	default:
		r.Valid = true
		r.StatusMessage = "valid"
	}
}

// VerifyCertificate looks a certificate up by folio for public verification.
// When hash is non-empty it must match the certificate's verification hash;
// a mismatch reports not found rather than disclosing that the folio exists.
// Lookups are read-only and never mutate certificate state.
func (s *Service) VerifyCertificate(ctx context.Context, folio, hash string) (*VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, "VerifyCertificate")
	defer span.End()
	start := time.Now()

	now := requestcontext.Now(ctx)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, folio); ok {
			if hash != "" && hash != cached.Hash {
				return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
			}
			cached.refresh(now)
			if s.metrics != nil {
				s.metrics.ObserveVerify(start)
			}
			return cached, nil
		}
	}

	var result *VerificationResult
	err := s.tx.RunInTx(ctx, func(store Store) error {
		cert, err := store.FindCertificateByFolio(ctx, folio)
		if err != nil {
			return translateStoreErr(err, "certificate not found")
		}
		process, err := store.FindProcess(ctx, cert.ProcessID)
		if err != nil {
			return translateStoreErr(err, "process not found")
		}
		candidate, err := store.FindCandidate(ctx, process.CandidateID)
		if err != nil {
			return translateStoreErr(err, "candidate not found")
		}
		competency, err := store.FindCompetency(ctx, candidate.CompetencyID)
		if err != nil {
			return translateStoreErr(err, "competency not found")
		}
		result = &VerificationResult{
			Folio:          cert.Folio,
			HolderName:     candidate.Name,
			Competency:     competency.Name,
			CompetencyCode: competency.Code.String(),
			Level:          candidate.Level.Int(),
			IssueDate:      cert.IssuedAt,
			ExpiryDate:     cert.ExpiresAt,
			Hash:           cert.VerificationHash,
			Status:         cert.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if hash != "" && hash != result.Hash {
		return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found")
	}
	result.refresh(now)
	if s.cache != nil {
		s.cache.Set(ctx, folio, result)
	}
	if s.metrics != nil {
		s.metrics.ObserveVerify(start)
	}
	return result, nil
}
