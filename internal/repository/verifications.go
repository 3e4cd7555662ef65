package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/kyc-verifier/constants"
	"github.com/joseph-ayodele/kyc-verifier/internal/common"
	"github.com/joseph-ayodele/kyc-verifier/internal/entity"
)

const verificationsTable = "verifications"

var verificationColumns = []string{
	"id", "person_id", "overall_status", "extracted_fields", "outcome", "extraction", "created_at",
}

// The DDL only uses types both Postgres and SQLite accept.
var verificationsDDL = []string{
	`CREATE TABLE IF NOT EXISTS verifications (
	id TEXT PRIMARY KEY,
	person_id TEXT NOT NULL,
	overall_status TEXT NOT NULL,
	extracted_fields INTEGER NOT NULL DEFAULT 0,
	outcome TEXT NOT NULL,
	extraction TEXT NOT NULL,
	created_at BIGINT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS verifications_person_created ON verifications (person_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS verifications_status_created ON verifications (overall_status, created_at)`,
}

type VerificationRepository interface {
	Migrate(ctx context.Context) error
	Save(ctx context.Context, rec entity.VerificationRecord) error
	GetLatest(ctx context.Context, personID string) (entity.VerificationRecord, error)
	ListByStatus(ctx context.Context, status constants.OverallStatus, limit int) ([]entity.VerificationRecord, error)
}

type verificationRepo struct {
	db  *DB
	log *slog.Logger
}

func NewVerificationRepository(db *DB, log *slog.Logger) VerificationRepository {
	if log == nil {
		log = slog.Default()
	}
	return &verificationRepo{db: db, log: log}
}

func (r *verificationRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *verificationRepo) Migrate(ctx context.Context) error {
	for _, stmt := range verificationsDDL {
		if _, err := r.db.Driver.DB().ExecContext(ctx, stmt); err != nil {
			r.log.Error("repo.migrate.failed", "err", err)
			return common.NewAppError(common.CodeStore, "create verifications schema", errors.Join(common.ErrDatabase, err))
		}
	}
	r.log.Debug("repo.migrate.ok", "table", verificationsTable)
	return nil
}

func (r *verificationRepo) Save(ctx context.Context, rec entity.VerificationRecord) error {
	if rec.PersonID == "" {
		return common.WrapError(common.ErrInvalidInput, "person_id is required")
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	outcome, err := json.Marshal(rec.Outcome)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	extraction, err := json.Marshal(rec.Extraction)
	if err != nil {
		return fmt.Errorf("encode extraction: %w", err)
	}

	query, args := r.builder().
		Insert(verificationsTable).
		Columns(verificationColumns...).
		Values(
			rec.ID.String(),
			rec.PersonID,
			string(rec.OverallStatus),
			rec.ExtractedFields,
			string(outcome),
			string(extraction),
			rec.CreatedAt.UnixNano(),
		).
		Query()
	if _, err := r.db.Driver.DB().ExecContext(ctx, query, args...); err != nil {
		r.log.Error("repo.save.failed", "person_id", rec.PersonID, "err", err)
		return common.NewAppError(common.CodeStore, "insert verification", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("repo.save.ok", "id", rec.ID, "person_id", rec.PersonID, "overall_status", rec.OverallStatus)
	return nil
}

func (r *verificationRepo) GetLatest(ctx context.Context, personID string) (entity.VerificationRecord, error) {
	b := r.builder()
	query, args := b.Select(verificationColumns...).
		From(b.Table(verificationsTable)).
		Where(entsql.EQ("person_id", personID)).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()
	recs, err := r.query(ctx, query, args)
	if err != nil {
		return entity.VerificationRecord{}, err
	}
	if len(recs) == 0 {
		return entity.VerificationRecord{}, fmt.Errorf("verification for %q: %w", personID, common.ErrNotFound)
	}
	return recs[0], nil
}

func (r *verificationRepo) ListByStatus(ctx context.Context, status constants.OverallStatus, limit int) ([]entity.VerificationRecord, error) {
	b := r.builder()
	sel := b.Select(verificationColumns...).
		From(b.Table(verificationsTable)).
		Where(entsql.EQ("overall_status", string(status))).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()
	return r.query(ctx, query, args)
}

func (r *verificationRepo) query(ctx context.Context, query string, args []any) ([]entity.VerificationRecord, error) {
	rows, err := r.db.Driver.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("repo.query.failed", "err", err)
		return nil, common.NewAppError(common.CodeStore, "select verifications", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.VerificationRecord
	for rows.Next() {
		rec, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError(common.CodeStore, "iterate verifications", errors.Join(common.ErrDatabase, err))
	}
	return out, nil
}

func scanVerification(rows *sql.Rows) (entity.VerificationRecord, error) {
	var (
		rec                 entity.VerificationRecord
		id, status          string
		outcome, extraction string
		createdAt           int64
	)
	if err := rows.Scan(&id, &rec.PersonID, &status, &rec.ExtractedFields, &outcome, &extraction, &createdAt); err != nil {
		return rec, fmt.Errorf("scan verification: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return rec, fmt.Errorf("parse verification id %q: %w", id, err)
	}
	rec.ID = parsed
	rec.OverallStatus = constants.OverallStatus(status)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	if err := json.Unmarshal([]byte(outcome), &rec.Outcome); err != nil {
		return rec, fmt.Errorf("decode outcome: %w", err)
	}
	if err := json.Unmarshal([]byte(extraction), &rec.Extraction); err != nil {
		return rec, fmt.Errorf("decode extraction: %w", err)
	}
	return rec, nil
}
