package services

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
)

func newTestAuditService(t *testing.T) (*AuditService, *AssetService, *repositories.MemoryAssetStore) {
	t.Helper()
	store := repositories.NewMemoryAssetStore(nil, 500)
	auditRepo := repositories.NewMemoryAuditRepository(store)
	auditSvc := NewAuditService(store, auditRepo, zap.NewNop())
	assetSvc := NewAssetService(store, nil, zap.NewNop())
	return auditSvc, assetSvc, store
}

// Пять физических ключей с одной биркой SRV.
func seedKeyGroup(t *testing.T, svc *AssetService, code string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		asset, err := svc.CreateAsset(testCtx(), dto.CreateAssetDTO{
			Name:     "Ключ " + code,
			Type:     string(entities.AssetTypeKey),
			MetaData: map[string]interface{}{entities.MetaKeyCode: code},
		})
		require.NoError(t, err)
		ids = append(ids, asset.ID)
	}
	sort.Strings(ids)
	return ids
}

func TestSubmitAuditPartialCount(t *testing.T) {
	auditSvc, assetSvc, _ := newTestAuditService(t)
	ids := seedKeyGroup(t, assetSvc, "SRV", 5)

	summary, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: "3"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, summary.ExpectedTotal)
	assert.Equal(t, 3, summary.CountedTotal)
	// Копии неразличимы, недостача детерминированно приписывается
	// последним id в лексикографическом порядке.
	assert.Equal(t, []string{ids[3], ids[4]}, summary.MissingAssetIDs)

	require.Len(t, summary.GroupBreakdown, 1)
	assert.Equal(t, "SRV", summary.GroupBreakdown[0].Code)
	assert.Equal(t, 5, summary.GroupBreakdown[0].Expected)
	assert.Equal(t, 3, summary.GroupBreakdown[0].Counted)
}

func TestSubmitAuditZeroCount(t *testing.T) {
	auditSvc, assetSvc, _ := newTestAuditService(t)
	ids := seedKeyGroup(t, assetSvc, "SRV", 5)

	summary, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: ""}},
	})
	require.NoError(t, err)

	// Пустой ввод — это 0: вся группа в недостаче.
	assert.Equal(t, 0, summary.CountedTotal)
	assert.Equal(t, ids, summary.MissingAssetIDs)
}

func TestSubmitAuditOverCount(t *testing.T) {
	auditSvc, assetSvc, _ := newTestAuditService(t)
	seedKeyGroup(t, assetSvc, "SRV", 5)

	summary, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: "7"}},
	})
	require.NoError(t, err)

	// Насчитали больше, чем числится: все подтверждены, излишек
	// не даёт отрицательной недостачи.
	assert.Equal(t, 5, summary.CountedTotal)
	assert.Empty(t, summary.MissingAssetIDs)
	assert.Equal(t, 7, summary.GroupBreakdown[0].Counted)
}

func TestSubmitAuditGarbageCount(t *testing.T) {
	auditSvc, assetSvc, _ := newTestAuditService(t)
	seedKeyGroup(t, assetSvc, "SRV", 2)

	summary, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: "abc"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CountedTotal)
}

func TestSubmitAuditStampsVerifiedKeys(t *testing.T) {
	auditSvc, assetSvc, store := newTestAuditService(t)
	ids := seedKeyGroup(t, assetSvc, "SRV", 3)

	_, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: "2"}},
	})
	require.NoError(t, err)

	for i, id := range ids {
		asset, err := store.Find(testCtx(), testOrgID, id)
		require.NoError(t, err)
		stamped := asset.MetaData.GetString(entities.MetaLastAuditDate)
		if i < 2 {
			assert.NotEmpty(t, stamped, "подтверждённый ключ должен получить дату инвентаризации")
		} else {
			assert.Empty(t, stamped, "недостающий ключ не штампуется")
		}
	}
}

func TestSubmitAuditDoesNotChangeStatus(t *testing.T) {
	auditSvc, assetSvc, store := newTestAuditService(t)
	ids := seedKeyGroup(t, assetSvc, "SRV", 4)

	_, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: "1"}},
	})
	require.NoError(t, err)

	// Сверка пассивна: статусы не трогаются даже при недостаче.
	for _, id := range ids {
		asset, err := store.Find(testCtx(), testOrgID, id)
		require.NoError(t, err)
		assert.Equal(t, entities.StatusAvailable, asset.Status)
	}
}

func TestSubmitAuditScopesToAvailableKeys(t *testing.T) {
	auditSvc, assetSvc, _ := newTestAuditService(t)
	ids := seedKeyGroup(t, assetSvc, "SRV", 3)

	// Выданный ключ в сверке не участвует.
	_, err := assetSvc.CheckOut(testCtx(), ids[0], dto.CheckOutDTO{Recipient: "Иванов"})
	require.NoError(t, err)

	// Техника тоже вне сверки, даже доступная.
	_, err = assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name: "Ноутбук",
		Type: string(entities.AssetTypeITDevice),
	})
	require.NoError(t, err)

	summary, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: "2"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ExpectedTotal)
	assert.Empty(t, summary.MissingAssetIDs)
}

func TestSubmitAuditFallsBackToQRCodeAndID(t *testing.T) {
	auditSvc, assetSvc, _ := newTestAuditService(t)

	// Ключ без keyCode группируется по qrCode.
	byQR, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name:   "Ключ без бирки",
		Type:   string(entities.AssetTypeKey),
		QRCode: "QR-77",
	})
	require.NoError(t, err)

	// Ключ вообще без кодов — одиночная группа по id.
	bare, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name: "Безымянный ключ",
		Type: string(entities.AssetTypeKey),
	})
	require.NoError(t, err)

	summary, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{
			{Code: "QR-77", Count: "1"},
			{Code: bare.ID, Count: "0"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ExpectedTotal)
	assert.Equal(t, 1, summary.CountedTotal)
	assert.Equal(t, []string{bare.ID}, summary.MissingAssetIDs)
	_ = byQR
}

func TestSubmitAuditCreatesImmutableRecord(t *testing.T) {
	auditSvc, assetSvc, store := newTestAuditService(t)
	ids := seedKeyGroup(t, assetSvc, "SRV", 2)

	summary, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: "1"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.AuditID)

	auditRepo := repositories.NewMemoryAuditRepository(store)
	record, err := auditRepo.Find(testCtx(), testOrgID, summary.AuditID)
	require.NoError(t, err)

	assert.Equal(t, "Тестовый Оператор", record.PerformedBy)
	assert.Equal(t, []string{ids[1]}, record.MissingKeys)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestMissingKeyRowsResolvesNames(t *testing.T) {
	auditSvc, assetSvc, _ := newTestAuditService(t)
	ids := seedKeyGroup(t, assetSvc, "SRV", 3)

	summary, err := auditSvc.SubmitAudit(testCtx(), dto.SubmitAuditDTO{
		Counts: []dto.GroupCountDTO{{Code: "SRV", Count: "1"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{ids[1], ids[2]}, summary.MissingAssetIDs)

	// Один из недостающих удалён после сверки: строка остаётся,
	// но только с id.
	require.NoError(t, assetSvc.DeleteAsset(testCtx(), ids[2]))

	record, rows, err := auditSvc.MissingKeyRows(testCtx(), summary.AuditID)
	require.NoError(t, err)
	assert.Equal(t, summary.AuditID, record.ID)
	require.Len(t, rows, 2)

	assert.Equal(t, ids[1], rows[0].AssetID)
	assert.Equal(t, "SRV", rows[0].Code)
	assert.Equal(t, "Ключ SRV", rows[0].Name)

	assert.Equal(t, ids[2], rows[1].AssetID)
	assert.Empty(t, rows[1].Name)
}
