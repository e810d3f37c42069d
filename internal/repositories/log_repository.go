package repositories

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
)

type LogRepositoryInterface interface {
	Append(ctx context.Context, entry entities.LogEntry) error
	ListByAsset(ctx context.Context, orgID, assetID string, limit, offset uint64) ([]entities.LogEntry, error)
	ListByOrg(ctx context.Context, orgID string, limit, offset uint64) ([]entities.LogEntry, uint64, error)
}

type LogRepository struct {
	storage *pgxpool.Pool
}

func NewLogRepository(storage *pgxpool.Pool) LogRepositoryInterface {
	return &LogRepository{storage: storage}
}

func (r *LogRepository) Append(ctx context.Context, entry entities.LogEntry) error {
	query, args, err := psql.Insert("asset_logs").
		Columns("org_id", "asset_id", "asset_name", "action", "actor_id", "actor_name", "notes", "created_at").
		Values(entry.OrgID, entry.AssetID, entry.AssetName, entry.Action, entry.ActorID, entry.ActorName, entry.Notes, time.Now().UTC()).
		ToSql()
	if err != nil {
		return apperrors.NewStoreError("logs.append", err)
	}

	if _, err := r.storage.Exec(ctx, query, args...); err != nil {
		return apperrors.NewStoreError("logs.append", err)
	}
	return nil
}

func (r *LogRepository) ListByAsset(ctx context.Context, orgID, assetID string, limit, offset uint64) ([]entities.LogEntry, error) {
	builder := psql.Select("id, org_id, asset_id, asset_name, action, actor_id, actor_name, notes, created_at").
		From("asset_logs").
		Where(sq.Eq{"org_id": orgID, "asset_id": assetID}).
		OrderBy("created_at DESC").
		Limit(limit).Offset(offset)

	return r.queryEntries(ctx, builder)
}

func (r *LogRepository) ListByOrg(ctx context.Context, orgID string, limit, offset uint64) ([]entities.LogEntry, uint64, error) {
	var total uint64
	if err := r.storage.QueryRow(ctx, "SELECT COUNT(*) FROM asset_logs WHERE org_id = $1", orgID).Scan(&total); err != nil {
		return nil, 0, apperrors.NewStoreError("logs.list", err)
	}

	builder := psql.Select("id, org_id, asset_id, asset_name, action, actor_id, actor_name, notes, created_at").
		From("asset_logs").
		Where(sq.Eq{"org_id": orgID}).
		OrderBy("created_at DESC").
		Limit(limit).Offset(offset)

	entries, err := r.queryEntries(ctx, builder)
	return entries, total, err
}

func (r *LogRepository) queryEntries(ctx context.Context, builder sq.SelectBuilder) ([]entities.LogEntry, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("logs.list", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("logs.list", err)
	}
	defer rows.Close()

	var entries []entities.LogEntry
	for rows.Next() {
		var e entities.LogEntry
		if err := rows.Scan(&e.ID, &e.OrgID, &e.AssetID, &e.AssetName, &e.Action, &e.ActorID, &e.ActorName, &e.Notes, &e.CreatedAt); err != nil {
			return nil, apperrors.NewStoreError("logs.list", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
