package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/eventbus"
)

const assetColumns = "id, org_id, name, type, status, area, total_keys, qr_code, meta_data, search_keywords, checked_out_at, created_at, updated_at"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresAssetStore struct {
	db              *pgxpool.Pool
	bus             *eventbus.Bus
	logger          *zap.Logger
	subs            *subscriberSet
	deleteBatchSize int
}

func NewPostgresAssetStore(db *pgxpool.Pool, bus *eventbus.Bus, logger *zap.Logger, deleteBatchSize int) AssetStoreInterface {
	if deleteBatchSize <= 0 {
		deleteBatchSize = 500
	}
	return &PostgresAssetStore{
		db:              db,
		bus:             bus,
		logger:          logger,
		subs:            newSubscriberSet(),
		deleteBatchSize: deleteBatchSize,
	}
}

type pgxScanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(row pgxScanner) (*entities.Asset, error) {
	var a entities.Asset
	err := row.Scan(
		&a.ID,
		&a.OrgID,
		&a.Name,
		&a.Type,
		&a.Status,
		&a.Area,
		&a.TotalKeys,
		&a.QRCode,
		&a.MetaData,
		&a.SearchKeywords,
		&a.CheckedOutAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresAssetStore) List(ctx context.Context, filter AssetFilter) ([]entities.Asset, error) {
	builder := psql.Select(assetColumns).From("assets").Where(sq.Eq{"org_id": filter.OrgID})
	if filter.Type != nil {
		builder = builder.Where(sq.Eq{"type": *filter.Type})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": *filter.Status})
	}
	builder = builder.OrderBy("name ASC, id ASC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("assets.list", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStoreError("assets.list", err)
	}
	defer rows.Close()

	var assets []entities.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, apperrors.NewStoreError("assets.list", err)
		}
		assets = append(assets, *a)
	}
	return assets, rows.Err()
}

func (s *PostgresAssetStore) Find(ctx context.Context, orgID, id string) (*entities.Asset, error) {
	query, args, err := psql.Select(assetColumns).From("assets").
		Where(sq.Eq{"org_id": orgID, "id": id}).ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("assets.find", err)
	}

	a, err := scanAsset(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.NewStoreError("assets.find", err)
	}
	return a, nil
}

func (s *PostgresAssetStore) Create(ctx context.Context, asset *entities.Asset) (string, error) {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	if asset.MetaData == nil {
		asset.MetaData = entities.Metadata{}
	}
	asset.MetaData = entities.Metadata(normalizeFieldValues(asset.MetaData))
	asset.RebuildSearchKeywords()

	query, args, err := psql.Insert("assets").
		Columns("id", "org_id", "name", "type", "status", "area", "total_keys", "qr_code", "meta_data", "search_keywords", "checked_out_at", "created_at", "updated_at").
		Values(asset.ID, asset.OrgID, asset.Name, asset.Type, asset.Status, asset.Area, asset.TotalKeys, asset.QRCode, asset.MetaData, asset.SearchKeywords, asset.CheckedOutAt, asset.CreatedAt, asset.UpdatedAt).
		ToSql()
	if err != nil {
		return "", apperrors.NewStoreError("assets.create", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return "", apperrors.NewStoreError("assets.create", err)
	}

	s.notifyChange(ctx, asset.OrgID)
	return asset.ID, nil
}

// buildUpdate переводит карту полей документа в UPDATE. Точечные пути
// metaData.* собираются в один jsonb-патч и накладываются оператором
// «||», не затирая соседние ключи.
func buildUpdate(orgID, id string, fields map[string]interface{}) (string, []interface{}, error) {
	builder := psql.Update("assets").
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"org_id": orgID, "id": id})

	metaPatch := make(map[string]interface{})
	for key, value := range normalizeFieldValues(fields) {
		if isMetaField(key) {
			metaPatch[metaFieldName(key)] = value
			continue
		}
		switch key {
		case FieldName:
			builder = builder.Set("name", value)
		case FieldArea:
			builder = builder.Set("area", value)
		case FieldStatus:
			builder = builder.Set("status", value)
		case FieldQRCode:
			builder = builder.Set("qr_code", value)
		case FieldType:
			builder = builder.Set("type", value)
		case FieldTotalKeys:
			builder = builder.Set("total_keys", value)
		case FieldCheckedOutAt:
			builder = builder.Set("checked_out_at", value)
		case FieldSearchKeywords:
			builder = builder.Set("search_keywords", value)
		case FieldMetaData:
			builder = builder.Set("meta_data", value)
		}
	}

	if len(metaPatch) > 0 {
		patchJSON, err := json.Marshal(metaPatch)
		if err != nil {
			return "", nil, err
		}
		builder = builder.Set("meta_data", sq.Expr("meta_data || ?::jsonb", string(patchJSON)))
	}

	return builder.ToSql()
}

func (s *PostgresAssetStore) Update(ctx context.Context, orgID, id string, fields map[string]interface{}) error {
	query, args, err := buildUpdate(orgID, id, fields)
	if err != nil {
		return apperrors.NewStoreError("assets.update", err)
	}
	query += " RETURNING " + assetColumns

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperrors.NewStoreError("assets.update", err)
	}
	defer tx.Rollback(ctx)

	updated, err := scanAsset(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrAssetNotFound
		}
		return apperrors.NewStoreError("assets.update", err)
	}

	if err := refreshSearchKeywords(ctx, tx, updated); err != nil {
		return apperrors.NewStoreError("assets.update", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewStoreError("assets.update", err)
	}

	s.notifyChange(ctx, orgID)
	return nil
}

// refreshSearchKeywords пересобирает ключевые слова из уже слитой
// строки и дописывает их в той же транзакции. Пересборка идёт от
// результата слияния, а не от патча: иначе переименование теряет
// прежние поисковые термины из метаданных.
func refreshSearchKeywords(ctx context.Context, tx pgx.Tx, asset *entities.Asset) error {
	asset.RebuildSearchKeywords()
	_, err := tx.Exec(ctx,
		"UPDATE assets SET search_keywords = $1 WHERE org_id = $2 AND id = $3",
		asset.SearchKeywords, asset.OrgID, asset.ID)
	return err
}

func (s *PostgresAssetStore) ApplyTransition(ctx context.Context, orgID string, req TransitionRequest) (*entities.Asset, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("assets.transition", err)
	}
	defer tx.Rollback(ctx)

	query, args, err := buildUpdate(orgID, req.AssetID, req.Fields)
	if err != nil {
		return nil, apperrors.NewStoreError("assets.transition", err)
	}
	// Предусловие машины состояний и RETURNING свежей строки.
	query += " AND status = $" + strconv.Itoa(len(args)+1) + " RETURNING " + assetColumns
	args = append(args, req.Expected)

	updated, err := scanAsset(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewStoreError("assets.transition", err)
		}
		// Ни одна строка не прошла предусловие: различаем "нет актива"
		// и "статус уже другой" — второе означает гонку операторов.
		var current entities.AssetStatus
		lookupErr := tx.QueryRow(ctx, "SELECT status FROM assets WHERE org_id = $1 AND id = $2", orgID, req.AssetID).Scan(&current)
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			return nil, apperrors.ErrAssetNotFound
		}
		if lookupErr != nil {
			return nil, apperrors.NewStoreError("assets.transition", lookupErr)
		}
		return nil, apperrors.NewInvalidStateError(req.AssetID, string(req.Expected), string(current))
	}

	if err := refreshSearchKeywords(ctx, tx, updated); err != nil {
		return nil, apperrors.NewStoreError("assets.transition", err)
	}

	// Идентичность записи журнала берётся из свежей строки: вызывающий
	// заполняет только действие и актора.
	entry := req.Log
	entry.OrgID = updated.OrgID
	entry.AssetID = updated.ID
	entry.AssetName = updated.Name

	logQuery, logArgs, err := psql.Insert("asset_logs").
		Columns("org_id", "asset_id", "asset_name", "action", "actor_id", "actor_name", "notes", "created_at").
		Values(entry.OrgID, entry.AssetID, entry.AssetName, entry.Action, entry.ActorID, entry.ActorName, entry.Notes, time.Now().UTC()).
		ToSql()
	if err != nil {
		return nil, apperrors.NewStoreError("assets.transition", err)
	}
	if _, err := tx.Exec(ctx, logQuery, logArgs...); err != nil {
		return nil, apperrors.NewStoreError("assets.transition", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperrors.NewStoreError("assets.transition", err)
	}

	s.notifyChange(ctx, orgID)
	return updated, nil
}

func (s *PostgresAssetStore) Delete(ctx context.Context, orgID, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM assets WHERE org_id = $1 AND id = $2", orgID, id)
	if err != nil {
		return apperrors.NewStoreError("assets.delete", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAssetNotFound
	}

	s.notifyChange(ctx, orgID)
	return nil
}

func (s *PostgresAssetStore) BatchDelete(ctx context.Context, orgID string, ids []string) (int, error) {
	batches := 0
	// Последовательно, не параллельно: ограничиваем и память,
	// и нагрузку на хранилище.
	for start := 0; start < len(ids); start += s.deleteBatchSize {
		end := start + s.deleteBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		tx, err := s.db.Begin(ctx)
		if err != nil {
			return batches, apperrors.NewStoreError("assets.batchDelete", err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM assets WHERE org_id = $1 AND id = ANY($2)", orgID, chunk); err != nil {
			tx.Rollback(ctx)
			return batches, apperrors.NewStoreError("assets.batchDelete", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return batches, apperrors.NewStoreError("assets.batchDelete", err)
		}
		batches++
	}

	if batches > 0 {
		s.notifyChange(ctx, orgID)
	}
	return batches, nil
}

func (s *PostgresAssetStore) DeleteAll(ctx context.Context, orgID string) (int, int, error) {
	rows, err := s.db.Query(ctx, "SELECT id FROM assets WHERE org_id = $1 ORDER BY id", orgID)
	if err != nil {
		return 0, 0, apperrors.NewStoreError("assets.deleteAll", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, 0, apperrors.NewStoreError("assets.deleteAll", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, 0, apperrors.NewStoreError("assets.deleteAll", err)
	}

	batches, err := s.BatchDelete(ctx, orgID, ids)
	return len(ids), batches, err
}

func (s *PostgresAssetStore) Subscribe(ctx context.Context, filter AssetFilter) (<-chan []entities.Asset, error) {
	sub := s.subs.add(ctx, filter)

	// Первый снимок сразу после подписки.
	go func() {
		snapshot, err := s.List(ctx, filter)
		if err != nil {
			s.logger.Warn("Не удалось получить первый срез подписки", zap.Error(err))
			return
		}
		select {
		case sub.ch <- snapshot:
		case <-ctx.Done():
		}
	}()

	return sub.ch, nil
}

func (s *PostgresAssetStore) notifyChange(ctx context.Context, orgID string) {
	s.subs.notify(orgID, s.List)
	if s.bus != nil {
		s.bus.Publish(ctx, AssetsChangedEvent{OrgID: orgID})
	}
}
