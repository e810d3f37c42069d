package repositories

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
)

type AuditRepositoryInterface interface {
	// Create пишет неизменяемую запись инвентаризации. Записи никогда
	// не обновляются и не удаляются.
	Create(ctx context.Context, record *entities.AuditRecord) (string, error)
	List(ctx context.Context, orgID string, limit, offset uint64) ([]entities.AuditRecord, uint64, error)
	Find(ctx context.Context, orgID, id string) (*entities.AuditRecord, error)
}

type AuditRepository struct {
	storage *pgxpool.Pool
}

func NewAuditRepository(storage *pgxpool.Pool) AuditRepositoryInterface {
	return &AuditRepository{storage: storage}
}

func (r *AuditRepository) Create(ctx context.Context, record *entities.AuditRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.MissingKeys == nil {
		record.MissingKeys = []string{}
	}

	query, args, err := psql.Insert("audit_records").
		Columns("id", "org_id", "performed_by", "missing_keys", "created_at").
		Values(record.ID, record.OrgID, record.PerformedBy, record.MissingKeys, record.CreatedAt).
		ToSql()
	if err != nil {
		return "", apperrors.NewStoreError("audits.create", err)
	}

	if _, err := r.storage.Exec(ctx, query, args...); err != nil {
		return "", apperrors.NewStoreError("audits.create", err)
	}
	return record.ID, nil
}

func (r *AuditRepository) List(ctx context.Context, orgID string, limit, offset uint64) ([]entities.AuditRecord, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, "SELECT COUNT(*) FROM audit_records WHERE org_id = $1", orgID).Scan(&total); err != nil {
		return nil, 0, apperrors.NewStoreError("audits.list", err)
	}

	query, args, err := psql.Select("id, org_id, performed_by, missing_keys, created_at").
		From("audit_records").
		Where(sq.Eq{"org_id": orgID}).
		OrderBy("created_at DESC").
		Limit(limit).Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, apperrors.NewStoreError("audits.list", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, apperrors.NewStoreError("audits.list", err)
	}
	defer rows.Close()

	var records []entities.AuditRecord
	for rows.Next() {
		var rec entities.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.OrgID, &rec.PerformedBy, &rec.MissingKeys, &rec.CreatedAt); err != nil {
			return nil, 0, apperrors.NewStoreError("audits.list", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func (r *AuditRepository) Find(ctx context.Context, orgID, id string) (*entities.AuditRecord, error) {
	var rec entities.AuditRecord
	err := r.storage.QueryRow(ctx,
		"SELECT id, org_id, performed_by, missing_keys, created_at FROM audit_records WHERE org_id = $1 AND id = $2",
		orgID, id,
	).Scan(&rec.ID, &rec.OrgID, &rec.PerformedBy, &rec.MissingKeys, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAuditNotFound
		}
		return nil, apperrors.NewStoreError("audits.find", err)
	}
	return &rec, nil
}
