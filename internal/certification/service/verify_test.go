package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"certo/internal/certification/store"
	"certo/internal/notify"
	dErrors "certo/pkg/domain-errors"
)

// mapCache is a VerificationCache over a plain map, enough to observe
// read-through behavior.
type mapCache struct {
	entries map[string]*VerificationResult
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]*VerificationResult{}}
}

func (c *mapCache) Get(_ context.Context, folio string) (*VerificationResult, bool) {
	r, ok := c.entries[folio]
	if ok {
		c.hits++
		clone := *r
		return &clone, true
	}
	return nil, false
}

func (c *mapCache) Set(_ context.Context, folio string, result *VerificationResult) {
	clone := *result
	c.entries[folio] = &clone
}

func (c *mapCache) Invalidate(_ context.Context, folio string) {
	delete(c.entries, folio)
}

func (s *ServiceSuite) TestVerifyCertificate_ValidCertificate() {
	issued := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(issued)
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	candidate, certificate := s.certify(ctx, competency, "Irene Paz")

	result, err := s.service.VerifyCertificate(ctx, certificate.Folio, "")
	s.Require().NoError(err)
	s.True(result.Valid)
	s.Equal("valid", result.StatusMessage)
	s.Equal(candidate.Name, result.HolderName)
	s.Equal(competency.Name, result.Competency)
	s.Equal("ELEC-01", result.CompetencyCode)
	s.Equal(3, result.Level)
	s.Equal(issued, result.IssueDate)
	s.Require().NotNil(result.ExpiryDate)
	s.Equal(issued.Add(competency.CertificateValidity), *result.ExpiryDate)
}

func (s *ServiceSuite) TestVerifyCertificate_HashChecked() {
	ctx := s.ctxAt(time.Now())
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")

	result, err := s.service.VerifyCertificate(ctx, certificate.Folio, certificate.VerificationHash)
	s.Require().NoError(err)
	s.True(result.Valid)

	_, err = s.service.VerifyCertificate(ctx, certificate.Folio, "deadbeefdeadbeef")
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestVerifyCertificate_UnknownFolio() {
	ctx := s.ctxAt(time.Now())
	_, err := s.service.VerifyCertificate(ctx, "ELEC-01-3-2026-999999", "")
	s.requireCode(err, dErrors.CodeNotFound)
}

func (s *ServiceSuite) TestVerifyCertificate_ExpiredByDate() {
	issued := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(issued)
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")
	s.Require().NotNil(certificate.ExpiresAt)

	late := s.ctxAt(certificate.ExpiresAt.Add(time.Hour))
	result, err := s.service.VerifyCertificate(late, certificate.Folio, "")
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("expired", result.StatusMessage)
}

func (s *ServiceSuite) TestVerifyCertificate_ReadThroughCache() {
	issued := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	cache := newMapCache()
	st := store.NewInMemoryStore()
	svc := New(NewMemoryTx(st),
		WithNotifier(notify.NewMemorySink()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithVerificationCache(cache),
	)
	// Reuse the suite harness store for the fixture, then point lookups at
	// the cached service.
	s.store = st
	s.competencies = store.SeedCompetencies(context.Background(), st)
	s.service = svc

	ctx := s.ctxAt(issued)
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")

	first, err := svc.VerifyCertificate(ctx, certificate.Folio, "")
	s.Require().NoError(err)
	s.True(first.Valid)
	s.Zero(cache.hits)

	second, err := svc.VerifyCertificate(ctx, certificate.Folio, "")
	s.Require().NoError(err)
	s.Equal(1, cache.hits)
	s.Equal(first.HolderName, second.HolderName)

	// A cached entry still honors the clock: the same folio verified past
	// its expiry reports expired without touching the store.
	late := s.ctxAt(certificate.ExpiresAt.Add(time.Hour))
	expired, err := svc.VerifyCertificate(late, certificate.Folio, "")
	s.Require().NoError(err)
	s.False(expired.Valid)
	s.Equal("expired", expired.StatusMessage)

	// Hash mismatches are enforced on cache hits too.
	_, err = svc.VerifyCertificate(ctx, certificate.Folio, "deadbeefdeadbeef")
	s.requireCode(err, dErrors.CodeNotFound)

	// Sweeping invalidates the entry.
	_, err = svc.SweepExpirations(ctx, certificate.ExpiresAt.Add(time.Hour))
	s.Require().NoError(err)
	_, ok := cache.entries[certificate.Folio]
	s.False(ok)
}

func (s *ServiceSuite) TestVerifyCertificate_SweptCertificateReportsExpired() {
	issued := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	ctx := s.ctxAt(issued)
	competency := s.competency(0)
	s.registerEvaluator(ctx, "Elena Vargas", 3, competency.ID)
	_, certificate := s.certify(ctx, competency, "Irene Paz")

	_, err := s.service.SweepExpirations(ctx, certificate.ExpiresAt.Add(time.Hour))
	s.Require().NoError(err)

	late := s.ctxAt(certificate.ExpiresAt.Add(2 * time.Hour))
	result, err := s.service.VerifyCertificate(late, certificate.Folio, "")
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Equal("expired", result.StatusMessage)
}
