package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
)

const testOrg = "org-1"

func seedAssets(t *testing.T, store *MemoryAssetStore, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := store.Create(context.Background(), &entities.Asset{
			OrgID:  testOrg,
			Name:   fmt.Sprintf("Актив %d", i),
			Type:   entities.AssetTypeKey,
			Status: entities.StatusAvailable,
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestMemoryStoreCRUD(t *testing.T) {
	store := NewMemoryAssetStore(nil, 500)
	ctx := context.Background()

	id, err := store.Create(ctx, &entities.Asset{
		OrgID:  testOrg,
		Name:   "Ключ",
		Type:   entities.AssetTypeKey,
		Status: entities.StatusAvailable,
	})
	require.NoError(t, err)

	asset, err := store.Find(ctx, testOrg, id)
	require.NoError(t, err)
	assert.Equal(t, "Ключ", asset.Name)
	assert.False(t, asset.CreatedAt.IsZero())

	require.NoError(t, store.Delete(ctx, testOrg, id))
	_, err = store.Find(ctx, testOrg, id)
	assert.ErrorIs(t, err, apperrors.ErrAssetNotFound)
}

func TestMemoryStoreDottedMetaUpdate(t *testing.T) {
	store := NewMemoryAssetStore(nil, 500)
	ctx := context.Background()

	id, err := store.Create(ctx, &entities.Asset{
		OrgID:  testOrg,
		Name:   "Ключ",
		Type:   entities.AssetTypeKey,
		Status: entities.StatusAvailable,
		MetaData: entities.Metadata{
			entities.MetaKeyCode:  "A-1",
			entities.MetaLocation: "Корпус А",
		},
	})
	require.NoError(t, err)

	err = store.Update(ctx, testOrg, id, map[string]interface{}{
		"metaData." + entities.MetaLocation: "Корпус Б",
	})
	require.NoError(t, err)

	asset, err := store.Find(ctx, testOrg, id)
	require.NoError(t, err)
	// Точечный патч не затирает соседей.
	assert.Equal(t, "Корпус Б", asset.MetaData.GetString(entities.MetaLocation))
	assert.Equal(t, "A-1", asset.MetaData.GetString(entities.MetaKeyCode))
}

func TestMemoryStoreConditionalTransition(t *testing.T) {
	store := NewMemoryAssetStore(nil, 500)
	ctx := context.Background()
	ids := seedAssets(t, store, 1)

	// Два конкурирующих перехода: ровно один выигрывает.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.ApplyTransition(ctx, testOrg, TransitionRequest{
				AssetID:  ids[0],
				Expected: entities.StatusAvailable,
				Fields: map[string]interface{}{
					FieldStatus: string(entities.StatusCheckedOut),
				},
				Log: entities.LogEntry{Action: entities.ActionCheckOut},
			})
		}(i)
	}
	wg.Wait()

	succeeded, conflicted := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		var invalidState *apperrors.InvalidStateError
		require.ErrorAs(t, err, &invalidState)
		conflicted++
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
}

func TestMemoryStoreBatchDeleteChunks(t *testing.T) {
	store := NewMemoryAssetStore(nil, 500)
	ids := seedAssets(t, store, 1200)

	batches, err := store.BatchDelete(context.Background(), testOrg, ids)
	require.NoError(t, err)
	assert.Equal(t, 3, batches)

	rest, err := store.List(context.Background(), AssetFilter{OrgID: testOrg})
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestMemoryStoreBatchDeleteSmallChunkSize(t *testing.T) {
	store := NewMemoryAssetStore(nil, 10)
	ids := seedAssets(t, store, 25)

	batches, err := store.BatchDelete(context.Background(), testOrg, ids)
	require.NoError(t, err)
	assert.Equal(t, 3, batches)
}

func TestMemoryStoreSubscribe(t *testing.T) {
	store := NewMemoryAssetStore(nil, 500)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Subscribe(ctx, AssetFilter{OrgID: testOrg})
	require.NoError(t, err)

	// Первый снимок — текущее (пустое) состояние.
	select {
	case snapshot := <-ch:
		assert.Empty(t, snapshot)
	case <-time.After(2 * time.Second):
		t.Fatal("не дождались начального снимка")
	}

	_, err = store.Create(context.Background(), &entities.Asset{
		OrgID:  testOrg,
		Name:   "Новый ключ",
		Type:   entities.AssetTypeKey,
		Status: entities.StatusAvailable,
	})
	require.NoError(t, err)

	select {
	case snapshot := <-ch:
		require.Len(t, snapshot, 1)
		assert.Equal(t, "Новый ключ", snapshot[0].Name)
	case <-time.After(2 * time.Second):
		t.Fatal("не дождались снимка после изменения")
	}
}

func TestMemoryStoreSubscribeFiltersByOrg(t *testing.T) {
	store := NewMemoryAssetStore(nil, 500)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := store.Subscribe(ctx, AssetFilter{OrgID: "org-other"})
	require.NoError(t, err)
	<-ch // начальный снимок

	seedAssets(t, store, 1)

	// Изменение чужой организации подписку не будит.
	select {
	case <-ch:
		t.Fatal("подписка получила чужой снимок")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNormalizeFieldValues(t *testing.T) {
	in := map[string]interface{}{
		"a": "x",
		"b": nil,
		"nested": map[string]interface{}{
			"c": nil,
			"d": 5,
		},
	}
	out := normalizeFieldValues(in)

	assert.Equal(t, "x", out["a"])
	assert.Nil(t, out["b"])
	nested := out["nested"].(map[string]interface{})
	assert.Nil(t, nested["c"])
	assert.Equal(t, 5, nested["d"])
}
