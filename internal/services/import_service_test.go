package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-system/internal/entities"
	"asset-system/internal/repositories"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestImportAssetsCreates(t *testing.T) {
	store := repositories.NewMemoryAssetStore(nil, 500)
	svc := NewImportService(store, zap.NewNop())

	buf := buildWorkbook(t, [][]interface{}{
		{"name", "type", "area", "qrCode", "keyCode"},
		{"Ключ от склада", "KEY", "Склад", "KEY-01", "SKL"},
		{"Ноутбук Dell", "IT_DEVICE", "", "", ""},
	})

	result, err := svc.ImportAssets(testCtx(), buf)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Empty(t, result.Errors)

	assets, err := store.List(testCtx(), repositories.AssetFilter{OrgID: testOrgID})
	require.NoError(t, err)
	require.Len(t, assets, 2)

	for _, a := range assets {
		if a.Type == entities.AssetTypeKey {
			assert.Equal(t, "SKL", a.MetaData.GetString(entities.MetaKeyCode))
			assert.Equal(t, "KEY-01", a.QRCode)
		}
	}
}

func TestImportAssetsUpdatesByQRCode(t *testing.T) {
	store := repositories.NewMemoryAssetStore(nil, 500)
	svc := NewImportService(store, zap.NewNop())

	buf := buildWorkbook(t, [][]interface{}{
		{"name", "type", "qrCode"},
		{"Старое имя", "KEY", "KEY-01"},
	})
	_, err := svc.ImportAssets(testCtx(), buf)
	require.NoError(t, err)

	buf = buildWorkbook(t, [][]interface{}{
		{"name", "type", "qrCode"},
		{"Новое имя", "KEY", "KEY-01"},
	})
	result, err := svc.ImportAssets(testCtx(), buf)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	assets, err := store.List(testCtx(), repositories.AssetFilter{OrgID: testOrgID})
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "Новое имя", assets[0].Name)
}

func TestImportAssetsAccumulatesRowErrors(t *testing.T) {
	store := repositories.NewMemoryAssetStore(nil, 500)
	svc := NewImportService(store, zap.NewNop())

	buf := buildWorkbook(t, [][]interface{}{
		{"name", "type", "totalKeys"},
		{"Нормальный", "KEY", ""},
		{"Кривой тип", "НЕ_ТИП", ""},
		{"Кривой totalKeys", "FACILITY", "много"},
		{"Тоже нормальный", "VEHICLE", ""},
	})

	result, err := svc.ImportAssets(testCtx(), buf)
	require.NoError(t, err)

	// Импорт не останавливается на первой ошибке.
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, 4, result.Errors[1].Row)
}

func TestImportAssetsRejectsMissingHeader(t *testing.T) {
	store := repositories.NewMemoryAssetStore(nil, 500)
	svc := NewImportService(store, zap.NewNop())

	buf := buildWorkbook(t, [][]interface{}{
		{"колонка1", "колонка2"},
		{"значение", "значение"},
	})

	_, err := svc.ImportAssets(testCtx(), buf)
	require.Error(t, err)
}
