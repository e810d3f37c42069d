package repositories

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/pkg/database/postgresql"
	apperrors "asset-system/pkg/errors"
)

var testPool *pgxpool.Pool

// TestMain подключается к тестовой БД из DATABASE_URL и прогоняет
// миграции. Без переменной окружения интеграционные тесты
// пропускаются, остальные тесты пакета выполняются как обычно.
func TestMain(m *testing.M) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		if err := postgresql.Migrate(dsn); err != nil {
			log.Fatalf("Не удалось применить миграции к тестовой БД: %v", err)
		}
		pool, err := pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
		}
		testPool = pool
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("DATABASE_URL не задан, интеграционные тесты PostgreSQL пропущены")
	}
	return testPool
}

// cleanupTables очищает таблицы для изоляции тестов.
func cleanupTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE TABLE asset_logs, audit_records, assets RESTART IDENTITY CASCADE;`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

func newIntegrationStore(pool *pgxpool.Pool) AssetStoreInterface {
	return NewPostgresAssetStore(pool, nil, zap.NewNop(), 500)
}

func TestPostgresAssetStore_Integration_TransitionWritesLogIdentity(t *testing.T) {
	pool := requireTestPool(t)
	cleanupTables(t, pool)

	store := newIntegrationStore(pool)
	logRepo := NewLogRepository(pool)
	ctx := context.Background()

	id, err := store.Create(ctx, &entities.Asset{
		OrgID:  testOrg,
		Name:   "Ключ от серверной",
		Type:   entities.AssetTypeKey,
		Status: entities.StatusAvailable,
	})
	require.NoError(t, err)

	updated, err := store.ApplyTransition(ctx, testOrg, TransitionRequest{
		AssetID:  id,
		Expected: entities.StatusAvailable,
		Fields: map[string]interface{}{
			FieldStatus: string(entities.StatusCheckedOut),
			metaFieldPrefix + entities.MetaCurrentHolder: "Иванов",
		},
		Log: entities.LogEntry{
			Action:    entities.ActionCheckOut,
			ActorID:   7,
			ActorName: "Петров П.П.",
			Notes:     "выдача на смену",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entities.StatusCheckedOut, updated.Status)

	// Идентичность записи журнала заполняется хранилищем из свежей
	// строки, а не вызывающим: иначе выборки по org_id/asset_id пусты.
	entries, err := logRepo.ListByAsset(ctx, testOrg, id, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testOrg, entries[0].OrgID)
	assert.Equal(t, id, entries[0].AssetID)
	assert.Equal(t, "Ключ от серверной", entries[0].AssetName)
	assert.Equal(t, entities.ActionCheckOut, entries[0].Action)
	assert.Equal(t, uint64(7), entries[0].ActorID)
	assert.Equal(t, "Петров П.П.", entries[0].ActorName)

	orgEntries, total, err := logRepo.ListByOrg(ctx, testOrg, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, orgEntries, 1)
	assert.Equal(t, id, orgEntries[0].AssetID)
}

func TestPostgresAssetStore_Integration_ConditionalTransition(t *testing.T) {
	pool := requireTestPool(t)
	cleanupTables(t, pool)

	store := newIntegrationStore(pool)
	ctx := context.Background()

	id, err := store.Create(ctx, &entities.Asset{
		OrgID:  testOrg,
		Name:   "Ноутбук",
		Type:   entities.AssetTypeITDevice,
		Status: entities.StatusAvailable,
	})
	require.NoError(t, err)

	checkout := func() error {
		_, err := store.ApplyTransition(ctx, testOrg, TransitionRequest{
			AssetID:  id,
			Expected: entities.StatusAvailable,
			Fields:   map[string]interface{}{FieldStatus: string(entities.StatusCheckedOut)},
			Log:      entities.LogEntry{Action: entities.ActionCheckOut},
		})
		return err
	}

	require.NoError(t, checkout())

	err = checkout()
	var invalidState *apperrors.InvalidStateError
	require.ErrorAs(t, err, &invalidState)
	assert.Equal(t, string(entities.StatusCheckedOut), invalidState.Current)
}

func TestPostgresAssetStore_Integration_RenameRebuildsKeywords(t *testing.T) {
	pool := requireTestPool(t)
	cleanupTables(t, pool)

	store := newIntegrationStore(pool)
	ctx := context.Background()

	id, err := store.Create(ctx, &entities.Asset{
		OrgID:  testOrg,
		Name:   "Старое имя",
		Type:   entities.AssetTypeITDevice,
		Status: entities.StatusAvailable,
		MetaData: entities.Metadata{
			entities.MetaSerialNumber: "sn-123",
		},
	})
	require.NoError(t, err)

	err = store.Update(ctx, testOrg, id, map[string]interface{}{
		FieldName: "Новый сервер",
	})
	require.NoError(t, err)

	asset, err := store.Find(ctx, testOrg, id)
	require.NoError(t, err)
	assert.Equal(t, "Новый сервер", asset.Name)

	// Пересборка идёт от слитой строки: токены нового имени появились,
	// термины из метаданных не потерялись.
	assert.Contains(t, asset.SearchKeywords, "новый")
	assert.Contains(t, asset.SearchKeywords, "сервер")
	assert.Contains(t, asset.SearchKeywords, "sn-123")
	assert.NotContains(t, asset.SearchKeywords, "старое")
}

func TestPostgresAssetStore_Integration_DottedMetaUpdate(t *testing.T) {
	pool := requireTestPool(t)
	cleanupTables(t, pool)

	store := newIntegrationStore(pool)
	ctx := context.Background()

	id, err := store.Create(ctx, &entities.Asset{
		OrgID:  testOrg,
		Name:   "Ключ",
		Type:   entities.AssetTypeKey,
		Status: entities.StatusAvailable,
		MetaData: entities.Metadata{
			entities.MetaKeyCode:  "SRV",
			entities.MetaLocation: "Этаж 3",
		},
	})
	require.NoError(t, err)

	err = store.Update(ctx, testOrg, id, map[string]interface{}{
		metaFieldPrefix + entities.MetaKeyCode: "SRV-2",
	})
	require.NoError(t, err)

	asset, err := store.Find(ctx, testOrg, id)
	require.NoError(t, err)
	assert.Equal(t, "SRV-2", asset.MetaData.GetString(entities.MetaKeyCode))
	// Соседний ключ jsonb-патч не затирает.
	assert.Equal(t, "Этаж 3", asset.MetaData.GetString(entities.MetaLocation))
}
