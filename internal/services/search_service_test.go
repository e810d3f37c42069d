package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
)

func newTestSearchService(t *testing.T) (*SearchService, *AssetService) {
	t.Helper()
	store := repositories.NewMemoryAssetStore(nil, 500)
	searchSvc := NewSearchService(store, zap.NewNop())
	assetSvc := NewAssetService(store, nil, zap.NewNop())
	return searchSvc, assetSvc
}

func TestSearchEmptyQueryReturnsEverything(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	_, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{Name: "Ключ от склада", Type: string(entities.AssetTypeKey)})
	require.NoError(t, err)
	_, err = assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{Name: "Ноутбук", Type: string(entities.AssetTypeITDevice)})
	require.NoError(t, err)

	result, err := searchSvc.Search(testCtx(), "")
	require.NoError(t, err)

	assert.Len(t, result.Keys, 1)
	assert.Len(t, result.Assets, 1)
}

func TestSearchExactAndSubstring(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	_, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{Name: "Ключ от склада", Type: string(entities.AssetTypeKey)})
	require.NoError(t, err)
	_, err = assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{Name: "Toyota Hilux", Type: string(entities.AssetTypeVehicle)})
	require.NoError(t, err)

	result, err := searchSvc.Search(testCtx(), "склад")
	require.NoError(t, err)
	assert.Len(t, result.Keys, 1)
	assert.Empty(t, result.Assets)

	result, err = searchSvc.Search(testCtx(), "toyota")
	require.NoError(t, err)
	assert.Len(t, result.Assets, 1)
	assert.Empty(t, result.Keys)
}

func TestSearchFuzzyTypo(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	_, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{Name: "Toyota Hilux", Type: string(entities.AssetTypeVehicle)})
	require.NoError(t, err)

	// Одна опечатка в шестибуквенном слове укладывается в порог 0.3.
	result, err := searchSvc.Search(testCtx(), "tayota")
	require.NoError(t, err)
	assert.Len(t, result.Assets, 1)

	// Совсем другое слово не матчится.
	result, err = searchSvc.Search(testCtx(), "грузовик")
	require.NoError(t, err)
	assert.Empty(t, result.Assets)
}

func TestSearchByMetadataValue(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	_, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name:     "Ноутбук Dell",
		Type:     string(entities.AssetTypeITDevice),
		MetaData: map[string]interface{}{entities.MetaSerialNumber: "SN-0042"},
	})
	require.NoError(t, err)

	result, err := searchSvc.Search(testCtx(), "sn-0042")
	require.NoError(t, err)
	assert.Len(t, result.Assets, 1)
}

func TestKeyGroupsByParent(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	two := 2
	door, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name:      "Серверная",
		Type:      string(entities.AssetTypeFacility),
		TotalKeys: &two,
		MetaData:  map[string]interface{}{entities.MetaLocation: "Корпус А"},
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
			Name:     "Ключ серверной",
			Type:     string(entities.AssetTypeKey),
			MetaData: map[string]interface{}{entities.MetaParentAssetID: door.ID},
		})
		require.NoError(t, err)
	}

	groups, err := searchSvc.KeyGroups(testCtx())
	require.NoError(t, err)
	require.Len(t, groups, 1)

	assert.Equal(t, door.ID, groups[0].ParentID)
	assert.Equal(t, "Серверная", groups[0].ParentName)
	assert.Equal(t, "Корпус А", groups[0].Location)
	assert.Len(t, groups[0].Keys, 2)
	assert.Equal(t, 2, groups[0].AvailableCount)
	assert.Equal(t, 0, groups[0].OutCount)
}

func TestKeyGroupsOrphanSingleton(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	orphan, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name:     "Ключ-сирота",
		Type:     string(entities.AssetTypeKey),
		MetaData: map[string]interface{}{entities.MetaParentAssetID: "нет-такого-родителя"},
	})
	require.NoError(t, err)

	groups, err := searchSvc.KeyGroups(testCtx())
	require.NoError(t, err)
	require.Len(t, groups, 1)

	// Сирота не выпадает из выдачи, а образует одиночную группу.
	assert.Equal(t, orphan.ID, groups[0].ParentID)
	assert.Equal(t, "Ключ-сирота", groups[0].ParentName)
	assert.Len(t, groups[0].Keys, 1)
}

func TestKeyGroupsCountsCheckedOut(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	zero := 0
	door, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name:      "Дверь",
		Type:      string(entities.AssetTypeFacility),
		TotalKeys: &zero,
	})
	require.NoError(t, err)

	makeKey := func(name string) *entities.Asset {
		key, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
			Name:     name,
			Type:     string(entities.AssetTypeKey),
			MetaData: map[string]interface{}{entities.MetaParentAssetID: door.ID},
		})
		require.NoError(t, err)
		return key
	}
	makeKey("Ключ 1")
	outKey := makeKey("Ключ 2")
	lostKey := makeKey("Ключ 3")

	_, err = assetSvc.CheckOut(testCtx(), outKey.ID, dto.CheckOutDTO{Recipient: "Иванов"})
	require.NoError(t, err)
	_, err = assetSvc.CheckOut(testCtx(), lostKey.ID, dto.CheckOutDTO{Recipient: "Петров"})
	require.NoError(t, err)
	_, err = assetSvc.ReportMissing(testCtx(), lostKey.ID, dto.ReportMissingDTO{Reason: "не вернули"})
	require.NoError(t, err)

	groups, err := searchSvc.KeyGroups(testCtx())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].AvailableCount)
	// Выданный и пропавший: оба «не на месте».
	assert.Equal(t, 2, groups[0].OutCount)
}

func TestReclassifyRentalParents(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	// RENTAL с totalKeys (даже нулевым) структурно родитель.
	zero := 0
	rentalParent, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name:      "Дверь из старого импорта",
		Type:      string(entities.AssetTypeRental),
		TotalKeys: &zero,
	})
	require.NoError(t, err)

	plainRental, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name: "Арендная позиция",
		Type: string(entities.AssetTypeRental),
	})
	require.NoError(t, err)

	changed, err := searchSvc.ReclassifyRentalParents(testCtx())
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := assetSvc.FindAsset(testCtx(), rentalParent.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.AssetTypeFacility, got.Type)

	got, err = assetSvc.FindAsset(testCtx(), plainRental.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.AssetTypeRental, got.Type)
}

func TestSearchByAreaAndStatus(t *testing.T) {
	searchSvc, assetSvc := newTestSearchService(t)

	_, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name: "Ключ от серверной", Type: string(entities.AssetTypeKey), Area: "Этаж 3",
	})
	require.NoError(t, err)
	laptop, err := assetSvc.CreateAsset(testCtx(), dto.CreateAssetDTO{
		Name: "Ноутбук", Type: string(entities.AssetTypeITDevice),
	})
	require.NoError(t, err)

	result, err := searchSvc.Search(testCtx(), "этаж 3")
	require.NoError(t, err)
	assert.Len(t, result.Keys, 1)
	assert.Empty(t, result.Assets)

	// Статус — изменчивое поле, в сохранённый индекс не попадает,
	// но в поиске участвует.
	_, err = assetSvc.CheckOut(testCtx(), laptop.ID, dto.CheckOutDTO{Recipient: "Петров"})
	require.NoError(t, err)

	result, err = searchSvc.Search(testCtx(), "checked_out")
	require.NoError(t, err)
	require.Len(t, result.Assets, 1)
	assert.Equal(t, laptop.ID, result.Assets[0].ID)
}
