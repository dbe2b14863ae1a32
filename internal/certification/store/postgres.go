package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"certo/internal/certification/models"
	id "certo/pkg/domain"
	"certo/pkg/platform/sentinel"
)

// PostgresStore persists certification entities in PostgreSQL. Uniqueness
// invariants (one active process per candidate, one evaluation and one
// certificate per process, global folio uniqueness) are backed by database
// constraints and reported as sentinel.ErrConflict.
type PostgresStore struct {
	db DBTX
}

// NewPostgres constructs a store over a connection pool.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// NewPostgresTx constructs a store bound to an open transaction, for use
// inside RunInTx.
func NewPostgresTx(tx *sql.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

// uniqueViolation is the PostgreSQL SQLSTATE for constraint class 23505.
const uniqueViolation = "23505"

func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	return err
}

// --- candidates ---

func (s *PostgresStore) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO candidates (id, owner_user_id, competency_id, level, name, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID.String(), c.OwnerUserID.String(), c.CompetencyID.String(), c.Level.Int(), c.Name, string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create candidate: %w", translateConflict(err))
	}
	return nil
}

func (s *PostgresStore) FindCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id::text, owner_user_id::text, competency_id::text, level, name, status, created_at, updated_at
		FROM candidates WHERE id = $1
	`, candidateID.String())
	return scanCandidate(row)
}

func (s *PostgresStore) UpdateCandidate(ctx context.Context, c *models.Candidate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE candidates SET status = $2, updated_at = $3 WHERE id = $1
	`, c.ID.String(), string(c.Status), c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update candidate: %w", err)
	}
	return requireRow(res)
}

func scanCandidate(row *sql.Row) (*models.Candidate, error) {
	var (
		c                            models.Candidate
		idStr, ownerStr, compStr     string
		level                        int
		status                       string
	)
	err := row.Scan(&idStr, &ownerStr, &compStr, &level, &c.Name, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	c.ID = id.CandidateID(uuid.MustParse(idStr))
	c.OwnerUserID = id.UserID(uuid.MustParse(ownerStr))
	c.CompetencyID = id.CompetencyID(uuid.MustParse(compStr))
	c.Level = id.Level(level)
	c.Status = models.CandidateStatus(status)
	return &c, nil
}

// --- competencies ---

func (s *PostgresStore) CreateCompetency(ctx context.Context, c *models.Competency) error {
	docTypes, err := json.Marshal(c.RequiredDocumentTypes)
	if err != nil {
		return fmt.Errorf("marshal required doc types: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO competencies (id, code, name, required_doc_types, validity_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID.String(), c.Code.String(), c.Name, docTypes, int64(c.CertificateValidity/time.Second), c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create competency: %w", translateConflict(err))
	}
	return nil
}

func (s *PostgresStore) FindCompetency(ctx context.Context, competencyID id.CompetencyID) (*models.Competency, error) {
	var (
		c               models.Competency
		idStr, codeStr  string
		docTypes        []byte
		validitySeconds int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id::text, code, name, required_doc_types, validity_seconds, created_at
		FROM competencies WHERE id = $1
	`, competencyID.String()).Scan(&idStr, &codeStr, &c.Name, &docTypes, &validitySeconds, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find competency: %w", err)
	}
	if err := json.Unmarshal(docTypes, &c.RequiredDocumentTypes); err != nil {
		return nil, fmt.Errorf("unmarshal required doc types: %w", err)
	}
	c.ID = id.CompetencyID(uuid.MustParse(idStr))
	c.Code = id.CompetencyCode(codeStr)
	c.CertificateValidity = time.Duration(validitySeconds) * time.Second
	return &c, nil
}

// --- processes ---

func (s *PostgresStore) CreateProcessIfNoneActive(ctx context.Context, p *models.Process) error {
	// The partial unique index processes_one_active_per_candidate turns a
	// second active insert into a unique violation.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processes (id, candidate_id, stage, result, evaluator_id, certificate_id, renewal_of_process_id, started_at, finished_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, processArgs(p)...)
	if err != nil {
		return fmt.Errorf("create process: %w", translateConflict(err))
	}
	return nil
}

func (s *PostgresStore) FindProcess(ctx context.Context, processID id.ProcessID) (*models.Process, error) {
	row := s.db.QueryRowContext(ctx, selectProcess+` WHERE id = $1`, processID.String())
	return scanProcess(row)
}

func (s *PostgresStore) FindActiveProcessByCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Process, error) {
	row := s.db.QueryRowContext(ctx, selectProcess+`
		WHERE candidate_id = $1 AND stage NOT IN ('aprobado', 'rechazado')
	`, candidateID.String())
	return scanProcess(row)
}

func (s *PostgresStore) UpdateProcess(ctx context.Context, p *models.Process) error {
	args := processArgs(p)
	res, err := s.db.ExecContext(ctx, `
		UPDATE processes
		SET stage = $3, result = $4, evaluator_id = $5, certificate_id = $6,
		    renewal_of_process_id = $7, started_at = $8, finished_at = $9, updated_at = $10
		WHERE id = $1
	`, args...)
	if err != nil {
		return fmt.Errorf("update process: %w", translateConflict(err))
	}
	return requireRow(res)
}

func (s *PostgresStore) CountAssignedInEvaluation(ctx context.Context, evaluatorID id.UserID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM processes WHERE evaluator_id = $1 AND stage = 'evaluacion'
	`, evaluatorID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count assigned: %w", err)
	}
	return count, nil
}

const selectProcess = `
	SELECT id::text, candidate_id::text, stage, result, evaluator_id::text,
	       certificate_id::text, renewal_of_process_id::text, started_at, finished_at, updated_at
	FROM processes`

func processArgs(p *models.Process) []any {
	var result sql.NullString
	if p.Result != nil {
		result = sql.NullString{String: string(*p.Result), Valid: true}
	}
	return []any{
		p.ID.String(),
		p.CandidateID.String(),
		string(p.Stage),
		result,
		nullUUID(p.EvaluatorID != nil, func() string { return p.EvaluatorID.String() }),
		nullUUID(p.CertificateID != nil, func() string { return p.CertificateID.String() }),
		nullUUID(p.RenewalOfProcessID != nil, func() string { return p.RenewalOfProcessID.String() }),
		p.StartedAt,
		nullTime(p.FinishedAt),
		p.UpdatedAt,
	}
}

func scanProcess(row *sql.Row) (*models.Process, error) {
	var (
		p                        models.Process
		idStr, candidateStr      string
		stage                    string
		result, evaluatorStr     sql.NullString
		certificateStr, priorStr sql.NullString
		finishedAt               sql.NullTime
	)
	err := row.Scan(&idStr, &candidateStr, &stage, &result, &evaluatorStr, &certificateStr, &priorStr, &p.StartedAt, &finishedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan process: %w", err)
	}
	p.ID = id.ProcessID(uuid.MustParse(idStr))
	p.CandidateID = id.CandidateID(uuid.MustParse(candidateStr))
	p.Stage = models.ProcessStage(stage)
	if result.Valid {
		r := models.ProcessResult(result.String)
		p.Result = &r
	}
	if evaluatorStr.Valid {
		e := id.UserID(uuid.MustParse(evaluatorStr.String))
		p.EvaluatorID = &e
	}
	if certificateStr.Valid {
		c := id.CertificateID(uuid.MustParse(certificateStr.String))
		p.CertificateID = &c
	}
	if priorStr.Valid {
		r := id.ProcessID(uuid.MustParse(priorStr.String))
		p.RenewalOfProcessID = &r
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		p.FinishedAt = &t
	}
	return &p, nil
}

// --- documents ---

func (s *PostgresStore) CreateDocument(ctx context.Context, d *models.Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, candidate_id, doc_type, status, store_ref, comments, reviewed_by, reviewed_at, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, d.ID.String(), d.CandidateID.String(), string(d.Type), string(d.Status), d.StoreRef, d.Comments,
		nullUUID(d.ReviewedBy != nil, func() string { return d.ReviewedBy.String() }), nullTime(d.ReviewedAt), d.UploadedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", translateConflict(err))
	}
	return nil
}

func (s *PostgresStore) FindDocument(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectDocument+` WHERE id = $1`, documentID.String())
	if err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	defer rows.Close()
	docs, err := collectDocuments(rows)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return docs[0], nil
}

func (s *PostgresStore) UpdateDocument(ctx context.Context, d *models.Document) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET status = $2, comments = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1
	`, d.ID.String(), string(d.Status), d.Comments,
		nullUUID(d.ReviewedBy != nil, func() string { return d.ReviewedBy.String() }), nullTime(d.ReviewedAt))
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListDocumentsByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectDocument+`
		WHERE candidate_id = $1 ORDER BY uploaded_at
	`, candidateID.String())
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

const selectDocument = `
	SELECT id::text, candidate_id::text, doc_type, status, store_ref, comments,
	       reviewed_by::text, reviewed_at, uploaded_at
	FROM documents`

func collectDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var out []*models.Document
	for rows.Next() {
		var (
			d                   models.Document
			idStr, candidateStr string
			docType, status     string
			reviewedBy          sql.NullString
			reviewedAt          sql.NullTime
		)
		if err := rows.Scan(&idStr, &candidateStr, &docType, &status, &d.StoreRef, &d.Comments, &reviewedBy, &reviewedAt, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.ID = id.DocumentID(uuid.MustParse(idStr))
		d.CandidateID = id.CandidateID(uuid.MustParse(candidateStr))
		d.Type = models.DocumentType(docType)
		d.Status = models.DocumentStatus(status)
		if reviewedBy.Valid {
			r := id.UserID(uuid.MustParse(reviewedBy.String))
			d.ReviewedBy = &r
		}
		if reviewedAt.Valid {
			t := reviewedAt.Time
			d.ReviewedAt = &t
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

// --- evaluators ---

func (s *PostgresStore) CreateEvaluator(ctx context.Context, e *models.Evaluator) error {
	scope, err := marshalScope(e.CompetencyScope)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluators (user_id, name, competency_scope, max_concurrent, available, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.UserID.String(), e.Name, scope, e.MaxConcurrent, e.Available, string(e.Status), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create evaluator: %w", translateConflict(err))
	}
	return nil
}

func (s *PostgresStore) FindEvaluator(ctx context.Context, userID id.UserID) (*models.Evaluator, error) {
	rows, err := s.db.QueryContext(ctx, selectEvaluator+` WHERE user_id = $1`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("find evaluator: %w", err)
	}
	defer rows.Close()
	evaluators, err := collectEvaluators(rows)
	if err != nil {
		return nil, err
	}
	if len(evaluators) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return evaluators[0], nil
}

func (s *PostgresStore) UpdateEvaluator(ctx context.Context, e *models.Evaluator) error {
	scope, err := marshalScope(e.CompetencyScope)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE evaluators
		SET name = $2, competency_scope = $3, max_concurrent = $4, available = $5, status = $6, updated_at = $7
		WHERE user_id = $1
	`, e.UserID.String(), e.Name, scope, e.MaxConcurrent, e.Available, string(e.Status), e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update evaluator: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListEvaluators(ctx context.Context) ([]*models.Evaluator, error) {
	rows, err := s.db.QueryContext(ctx, selectEvaluator+` ORDER BY name, user_id`)
	if err != nil {
		return nil, fmt.Errorf("list evaluators: %w", err)
	}
	defer rows.Close()
	return collectEvaluators(rows)
}

const selectEvaluator = `
	SELECT user_id::text, name, competency_scope, max_concurrent, available, status, created_at, updated_at
	FROM evaluators`

func marshalScope(scope []id.CompetencyID) ([]byte, error) {
	ids := make([]string, len(scope))
	for i, c := range scope {
		ids[i] = c.String()
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("marshal competency scope: %w", err)
	}
	return data, nil
}

func collectEvaluators(rows *sql.Rows) ([]*models.Evaluator, error) {
	var out []*models.Evaluator
	for rows.Next() {
		var (
			e         models.Evaluator
			userStr   string
			scopeJSON []byte
			status    string
		)
		if err := rows.Scan(&userStr, &e.Name, &scopeJSON, &e.MaxConcurrent, &e.Available, &status, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan evaluator: %w", err)
		}
		var ids []string
		if err := json.Unmarshal(scopeJSON, &ids); err != nil {
			return nil, fmt.Errorf("unmarshal competency scope: %w", err)
		}
		e.UserID = id.UserID(uuid.MustParse(userStr))
		e.Status = models.EvaluatorStatus(status)
		e.CompetencyScope = make([]id.CompetencyID, len(ids))
		for i, s := range ids {
			e.CompetencyScope[i] = id.CompetencyID(uuid.MustParse(s))
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

// --- evaluations ---

func (s *PostgresStore) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	criteria, err := json.Marshal(e.CriteriaScores)
	if err != nil {
		return fmt.Errorf("marshal criteria scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO evaluations (id, process_id, evaluator_id, grade, result, comments, criteria_scores, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID.String(), e.ProcessID.String(), e.EvaluatorID.String(), e.Grade, string(e.Result), e.Comments, criteria, e.SubmittedAt)
	if err != nil {
		return fmt.Errorf("create evaluation: %w", translateConflict(err))
	}
	return nil
}

func (s *PostgresStore) FindEvaluationByProcess(ctx context.Context, processID id.ProcessID) (*models.Evaluation, error) {
	var (
		e                             models.Evaluation
		idStr, processStr, evaluatorStr string
		result                        string
		criteria                      []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id::text, process_id::text, evaluator_id::text, grade, result, comments, criteria_scores, submitted_at
		FROM evaluations WHERE process_id = $1
	`, processID.String()).Scan(&idStr, &processStr, &evaluatorStr, &e.Grade, &result, &e.Comments, &criteria, &e.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find evaluation: %w", err)
	}
	if err := json.Unmarshal(criteria, &e.CriteriaScores); err != nil {
		return nil, fmt.Errorf("unmarshal criteria scores: %w", err)
	}
	e.ID = id.EvaluationID(uuid.MustParse(idStr))
	e.ProcessID = id.ProcessID(uuid.MustParse(processStr))
	e.EvaluatorID = id.UserID(uuid.MustParse(evaluatorStr))
	e.Result = models.ProcessResult(result)
	return &e, nil
}

// --- certificates ---

func (s *PostgresStore) CreateCertificate(ctx context.Context, c *models.Certificate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO certificates (id, process_id, folio, verification_hash, status, issued_by, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID.String(), c.ProcessID.String(), c.Folio, c.VerificationHash, string(c.Status), c.IssuedBy.String(), c.IssuedAt, nullTime(c.ExpiresAt))
	if err != nil {
		return fmt.Errorf("create certificate: %w", translateConflict(err))
	}
	return nil
}

func (s *PostgresStore) FindCertificate(ctx context.Context, certificateID id.CertificateID) (*models.Certificate, error) {
	return scanCertificate(s.db.QueryRowContext(ctx, selectCertificate+` WHERE id = $1`, certificateID.String()))
}

func (s *PostgresStore) FindCertificateByFolio(ctx context.Context, folio string) (*models.Certificate, error) {
	return scanCertificate(s.db.QueryRowContext(ctx, selectCertificate+` WHERE folio = $1`, folio))
}

func (s *PostgresStore) FindCertificateByProcess(ctx context.Context, processID id.ProcessID) (*models.Certificate, error) {
	return scanCertificate(s.db.QueryRowContext(ctx, selectCertificate+` WHERE process_id = $1`, processID.String()))
}

func (s *PostgresStore) UpdateCertificate(ctx context.Context, c *models.Certificate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE certificates SET status = $2 WHERE id = $1
	`, c.ID.String(), string(c.Status))
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListExpiredCertificates(ctx context.Context, now time.Time) ([]*models.Certificate, error) {
	rows, err := s.db.QueryContext(ctx, selectCertificate+`
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY issued_at
	`, now)
	if err != nil {
		return nil, fmt.Errorf("list expired certificates: %w", err)
	}
	defer rows.Close()

	var out []*models.Certificate
	for rows.Next() {
		c, err := scanCertificateRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) NextFolioSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT nextval('folio_sequence')`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next folio sequence: %w", err)
	}
	return seq, nil
}

const selectCertificate = `
	SELECT id::text, process_id::text, folio, verification_hash, status, issued_by::text, issued_at, expires_at
	FROM certificates`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row *sql.Row) (*models.Certificate, error) {
	c, err := scanCertificateRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCertificateRow(row rowScanner) (*models.Certificate, error) {
	var (
		c                            models.Certificate
		idStr, processStr, issuedStr string
		status                       string
		expiresAt                    sql.NullTime
	)
	err := row.Scan(&idStr, &processStr, &c.Folio, &c.VerificationHash, &status, &issuedStr, &c.IssuedAt, &expiresAt)
	if err != nil {
		return nil, err
	}
	c.ID = id.CertificateID(uuid.MustParse(idStr))
	c.ProcessID = id.ProcessID(uuid.MustParse(processStr))
	c.Status = models.CertificateStatus(status)
	c.IssuedBy = id.UserID(uuid.MustParse(issuedStr))
	if expiresAt.Valid {
		t := expiresAt.Time
		c.ExpiresAt = &t
	}
	return &c, nil
}

// --- renewals ---

func (s *PostgresStore) CreateRenewal(ctx context.Context, r *models.Renewal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renewals (id, certificate_id, process_id, renewal_type, declared_activity, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID.String(), r.CertificateID.String(), r.ProcessID.String(), string(r.Type), r.DeclaredActivity, string(r.Status), r.SubmittedAt)
	if err != nil {
		return fmt.Errorf("create renewal: %w", translateConflict(err))
	}
	return nil
}

func (s *PostgresStore) FindRenewalByProcess(ctx context.Context, processID id.ProcessID) (*models.Renewal, error) {
	var (
		r                              models.Renewal
		idStr, certificateStr, procStr string
		renewalType, status            string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id::text, certificate_id::text, process_id::text, renewal_type, declared_activity, status, submitted_at
		FROM renewals WHERE process_id = $1
	`, processID.String()).Scan(&idStr, &certificateStr, &procStr, &renewalType, &r.DeclaredActivity, &status, &r.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find renewal: %w", err)
	}
	r.ID = id.RenewalID(uuid.MustParse(idStr))
	r.CertificateID = id.CertificateID(uuid.MustParse(certificateStr))
	r.ProcessID = id.ProcessID(uuid.MustParse(procStr))
	r.Type = models.RenewalType(renewalType)
	r.Status = models.RenewalStatus(status)
	return &r, nil
}

// --- helpers ---

func nullUUID(valid bool, val func() string) sql.NullString {
	if !valid {
		return sql.NullString{}
	}
	return sql.NullString{String: val(), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
