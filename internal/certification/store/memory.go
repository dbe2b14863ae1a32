package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"certo/internal/certification/models"
	id "certo/pkg/domain"
	"certo/pkg/platform/sentinel"
)

// InMemoryStore keeps every entity in process maps. Callers get defensive
// copies so store state only changes through explicit Create/Update calls,
// matching the transactional semantics of the PostgreSQL implementation.
type InMemoryStore struct {
	mu            sync.RWMutex
	candidates    map[id.CandidateID]*models.Candidate
	competencies  map[id.CompetencyID]*models.Competency
	processes     map[id.ProcessID]*models.Process
	documents     map[id.DocumentID]*models.Document
	evaluators    map[id.UserID]*models.Evaluator
	evaluations   map[id.ProcessID]*models.Evaluation
	certificates  map[id.CertificateID]*models.Certificate
	renewals      map[id.RenewalID]*models.Renewal
	folioSequence int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		candidates:   make(map[id.CandidateID]*models.Candidate),
		competencies: make(map[id.CompetencyID]*models.Competency),
		processes:    make(map[id.ProcessID]*models.Process),
		documents:    make(map[id.DocumentID]*models.Document),
		evaluators:   make(map[id.UserID]*models.Evaluator),
		evaluations:  make(map[id.ProcessID]*models.Evaluation),
		certificates: make(map[id.CertificateID]*models.Certificate),
		renewals:     make(map[id.RenewalID]*models.Renewal),
	}
}

// --- candidates ---

func (s *InMemoryStore) CreateCandidate(_ context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.candidates[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.candidates[c.ID] = cloneCandidate(c)
	return nil
}

func (s *InMemoryStore) FindCandidate(_ context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCandidate(c), nil
}

func (s *InMemoryStore) UpdateCandidate(_ context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.candidates[c.ID] = cloneCandidate(c)
	return nil
}

// --- competencies ---

func (s *InMemoryStore) CreateCompetency(_ context.Context, c *models.Competency) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.competencies[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.competencies[c.ID] = cloneCompetency(c)
	return nil
}

func (s *InMemoryStore) FindCompetency(_ context.Context, competencyID id.CompetencyID) (*models.Competency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.competencies[competencyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCompetency(c), nil
}

// --- processes ---

// CreateProcessIfNoneActive inserts the process only when the candidate has
// no other non-terminal process. This is the store-level fact behind the
// one-active-process-per-candidate invariant.
func (s *InMemoryStore) CreateProcessIfNoneActive(_ context.Context, p *models.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.processes {
		if existing.CandidateID == p.CandidateID && existing.Active() {
			return sentinel.ErrConflict
		}
	}
	s.processes[p.ID] = cloneProcess(p)
	return nil
}

func (s *InMemoryStore) FindProcess(_ context.Context, processID id.ProcessID) (*models.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.processes[processID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneProcess(p), nil
}

func (s *InMemoryStore) FindActiveProcessByCandidate(_ context.Context, candidateID id.CandidateID) (*models.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.processes {
		if p.CandidateID == candidateID && p.Active() {
			return cloneProcess(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateProcess(_ context.Context, p *models.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.processes[p.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.processes[p.ID] = cloneProcess(p)
	return nil
}

// CountAssignedInEvaluation derives an evaluator's current load from
// committed process state.
func (s *InMemoryStore) CountAssignedInEvaluation(_ context.Context, evaluatorID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.processes {
		if p.Stage == models.StageEvaluacion && p.EvaluatorID != nil && *p.EvaluatorID == evaluatorID {
			count++
		}
	}
	return count, nil
}

// --- documents ---

func (s *InMemoryStore) CreateDocument(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[d.ID]; exists {
		return sentinel.ErrConflict
	}
	s.documents[d.ID] = cloneDocument(d)
	return nil
}

func (s *InMemoryStore) FindDocument(_ context.Context, documentID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.documents[documentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDocument(d), nil
}

func (s *InMemoryStore) UpdateDocument(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.documents[d.ID] = cloneDocument(d)
	return nil
}

func (s *InMemoryStore) ListDocumentsByCandidate(_ context.Context, candidateID id.CandidateID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, d := range s.documents {
		if d.CandidateID == candidateID {
			out = append(out, cloneDocument(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.Before(out[j].UploadedAt) })
	return out, nil
}

// --- evaluators ---

func (s *InMemoryStore) CreateEvaluator(_ context.Context, e *models.Evaluator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.evaluators[e.UserID]; exists {
		return sentinel.ErrConflict
	}
	s.evaluators[e.UserID] = cloneEvaluator(e)
	return nil
}

func (s *InMemoryStore) FindEvaluator(_ context.Context, userID id.UserID) (*models.Evaluator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.evaluators[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEvaluator(e), nil
}

func (s *InMemoryStore) UpdateEvaluator(_ context.Context, e *models.Evaluator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.evaluators[e.UserID]; !ok {
		return sentinel.ErrNotFound
	}
	s.evaluators[e.UserID] = cloneEvaluator(e)
	return nil
}

// ListEvaluators returns all evaluators ordered by name then user id, so
// callers ranking them get a stable iteration order.
func (s *InMemoryStore) ListEvaluators(_ context.Context) ([]*models.Evaluator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Evaluator, 0, len(s.evaluators))
	for _, e := range s.evaluators {
		out = append(out, cloneEvaluator(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return strings.Compare(out[i].Name, out[j].Name) < 0
		}
		return strings.Compare(out[i].UserID.String(), out[j].UserID.String()) < 0
	})
	return out, nil
}

// --- evaluations ---

// CreateEvaluation enforces one evaluation per process.
func (s *InMemoryStore) CreateEvaluation(_ context.Context, e *models.Evaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.evaluations[e.ProcessID]; exists {
		return sentinel.ErrConflict
	}
	s.evaluations[e.ProcessID] = cloneEvaluation(e)
	return nil
}

func (s *InMemoryStore) FindEvaluationByProcess(_ context.Context, processID id.ProcessID) (*models.Evaluation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.evaluations[processID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneEvaluation(e), nil
}

// --- certificates ---

// CreateCertificate enforces folio uniqueness and the one-certificate-per-
// process invariant.
func (s *InMemoryStore) CreateCertificate(_ context.Context, c *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.certificates {
		if existing.Folio == c.Folio || existing.ProcessID == c.ProcessID {
			return sentinel.ErrConflict
		}
	}
	s.certificates[c.ID] = cloneCertificate(c)
	return nil
}

func (s *InMemoryStore) FindCertificate(_ context.Context, certificateID id.CertificateID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.certificates[certificateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCertificate(c), nil
}

func (s *InMemoryStore) FindCertificateByFolio(_ context.Context, folio string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.certificates {
		if c.Folio == folio {
			return cloneCertificate(c), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindCertificateByProcess(_ context.Context, processID id.ProcessID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.certificates {
		if c.ProcessID == processID {
			return cloneCertificate(c), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) UpdateCertificate(_ context.Context, c *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.certificates[c.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.certificates[c.ID] = cloneCertificate(c)
	return nil
}

func (s *InMemoryStore) ListExpiredCertificates(_ context.Context, now time.Time) ([]*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Certificate
	for _, c := range s.certificates {
		if c.Status == models.CertificateStatusActive && c.Expired(now) {
			out = append(out, cloneCertificate(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}

// NextFolioSequence hands out the next value of the global issuance counter.
func (s *InMemoryStore) NextFolioSequence(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folioSequence++
	return s.folioSequence, nil
}

// --- renewals ---

func (s *InMemoryStore) CreateRenewal(_ context.Context, r *models.Renewal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.renewals {
		if existing.ProcessID == r.ProcessID {
			return sentinel.ErrConflict
		}
	}
	s.renewals[r.ID] = cloneRenewal(r)
	return nil
}

func (s *InMemoryStore) FindRenewalByProcess(_ context.Context, processID id.ProcessID) (*models.Renewal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.renewals {
		if r.ProcessID == processID {
			return cloneRenewal(r), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// --- clone helpers ---

func cloneCandidate(c *models.Candidate) *models.Candidate {
	out := *c
	return &out
}

func cloneCompetency(c *models.Competency) *models.Competency {
	out := *c
	out.RequiredDocumentTypes = append([]models.DocumentType(nil), c.RequiredDocumentTypes...)
	return &out
}

func cloneProcess(p *models.Process) *models.Process {
	out := *p
	if p.Result != nil {
		r := *p.Result
		out.Result = &r
	}
	if p.EvaluatorID != nil {
		e := *p.EvaluatorID
		out.EvaluatorID = &e
	}
	if p.CertificateID != nil {
		c := *p.CertificateID
		out.CertificateID = &c
	}
	if p.RenewalOfProcessID != nil {
		r := *p.RenewalOfProcessID
		out.RenewalOfProcessID = &r
	}
	if p.FinishedAt != nil {
		t := *p.FinishedAt
		out.FinishedAt = &t
	}
	return &out
}

func cloneDocument(d *models.Document) *models.Document {
	out := *d
	if d.ReviewedBy != nil {
		r := *d.ReviewedBy
		out.ReviewedBy = &r
	}
	if d.ReviewedAt != nil {
		t := *d.ReviewedAt
		out.ReviewedAt = &t
	}
	return &out
}

func cloneEvaluator(e *models.Evaluator) *models.Evaluator {
	out := *e
	out.CompetencyScope = append([]id.CompetencyID(nil), e.CompetencyScope...)
	return &out
}

func cloneEvaluation(e *models.Evaluation) *models.Evaluation {
	out := *e
	out.CriteriaScores = append([]models.CriterionScore(nil), e.CriteriaScores...)
	return &out
}

func cloneCertificate(c *models.Certificate) *models.Certificate {
	out := *c
	if c.ExpiresAt != nil {
		t := *c.ExpiresAt
		out.ExpiresAt = &t
	}
	return &out
}

func cloneRenewal(r *models.Renewal) *models.Renewal {
	out := *r
	return &out
}
