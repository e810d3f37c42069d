package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/repositories"
)

func newTestReportService(t *testing.T) (*ReportService, *AssetService) {
	t.Helper()
	store := repositories.NewMemoryAssetStore(nil, 500)
	reportSvc := NewReportService(store, nil, time.Minute, zap.NewNop())
	assetSvc := NewAssetService(store, nil, zap.NewNop())
	return reportSvc, assetSvc
}

func TestActiveLoans(t *testing.T) {
	reportSvc, assetSvc := newTestReportService(t)

	key := createTestAsset(t, assetSvc, "Ключ #1")
	createTestAsset(t, assetSvc, "Ключ #2")

	_, err := assetSvc.CheckOut(testCtx(), key.ID, dto.CheckOutDTO{
		Recipient: "Иванов",
		Company:   "Подрядчик",
	})
	require.NoError(t, err)

	rows, err := reportSvc.ActiveLoans(testCtx())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, key.ID, rows[0].AssetID)
	assert.Equal(t, "Иванов", rows[0].Holder)
	assert.Equal(t, "Подрядчик", rows[0].Company.String)
	assert.True(t, rows[0].CheckedOutAt.Valid)
	assert.False(t, rows[0].Overdue)
}

func TestOverdueOnlyPastDue(t *testing.T) {
	reportSvc, assetSvc := newTestReportService(t)

	late := createTestAsset(t, assetSvc, "Просроченный")
	onTime := createTestAsset(t, assetSvc, "В срок")

	pastDue := time.Now().Add(-24 * time.Hour).UTC()
	_, err := assetSvc.CheckOut(testCtx(), late.ID, dto.CheckOutDTO{Recipient: "Иванов", DueDate: &pastDue})
	require.NoError(t, err)

	futureDue := time.Now().Add(24 * time.Hour).UTC()
	_, err = assetSvc.CheckOut(testCtx(), onTime.ID, dto.CheckOutDTO{Recipient: "Петров", DueDate: &futureDue})
	require.NoError(t, err)

	rows, err := reportSvc.Overdue(testCtx())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, late.ID, rows[0].AssetID)
	assert.True(t, rows[0].Overdue)
}

func TestHoldersGrouping(t *testing.T) {
	reportSvc, assetSvc := newTestReportService(t)

	for i := 0; i < 3; i++ {
		asset := createTestAsset(t, assetSvc, "Ключ Иванова")
		_, err := assetSvc.CheckOut(testCtx(), asset.ID, dto.CheckOutDTO{Recipient: "Иванов"})
		require.NoError(t, err)
	}
	single := createTestAsset(t, assetSvc, "Ключ Петрова")
	_, err := assetSvc.CheckOut(testCtx(), single.ID, dto.CheckOutDTO{Recipient: "Петров"})
	require.NoError(t, err)

	groups, err := reportSvc.Holders(testCtx())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	// Самые нагруженные держатели сверху.
	assert.Equal(t, "Иванов", groups[0].Holder)
	assert.Equal(t, 3, groups[0].Count)
	assert.Equal(t, "Петров", groups[1].Holder)
	assert.Equal(t, 1, groups[1].Count)
}

func TestReportsExcludeMissingAssets(t *testing.T) {
	reportSvc, assetSvc := newTestReportService(t)

	asset := createTestAsset(t, assetSvc, "Ключ")
	_, err := assetSvc.CheckOut(testCtx(), asset.ID, dto.CheckOutDTO{Recipient: "Иванов"})
	require.NoError(t, err)
	_, err = assetSvc.ReportMissing(testCtx(), asset.ID, dto.ReportMissingDTO{Reason: "утерян"})
	require.NoError(t, err)

	// MISSING — не активная выдача.
	rows, err := reportSvc.ActiveLoans(testCtx())
	require.NoError(t, err)
	assert.Empty(t, rows)
}
