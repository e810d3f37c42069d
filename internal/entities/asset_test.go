package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchKeywords(t *testing.T) {
	keywords := BuildSearchKeywords("Ключ от Склада", "KEY-01", Metadata{
		MetaKeyCode:      "SKL",
		MetaLocation:     "Корпус А",
		MetaCheckedOutAt: time.Now(), // нестроковые значения не индексируются
	})

	assert.Contains(t, keywords, "ключ")
	assert.Contains(t, keywords, "склада")
	assert.Contains(t, keywords, "ключ от склада")
	assert.Contains(t, keywords, "key-01")
	assert.Contains(t, keywords, "skl")
	assert.Contains(t, keywords, "корпус а")

	// Множество без дубликатов, отсортировано.
	seen := make(map[string]struct{})
	for _, kw := range keywords {
		_, dup := seen[kw]
		assert.False(t, dup, "дубликат ключевого слова: %s", kw)
		seen[kw] = struct{}{}
	}
}

func TestShortCodePriority(t *testing.T) {
	a := &Asset{ID: "id-1", QRCode: "QR-1", MetaData: Metadata{MetaKeyCode: "CODE-1"}}
	assert.Equal(t, "CODE-1", a.ShortCode())

	a = &Asset{ID: "id-1", QRCode: "QR-1", MetaData: Metadata{}}
	assert.Equal(t, "QR-1", a.ShortCode())

	a = &Asset{ID: "id-1", MetaData: Metadata{}}
	assert.Equal(t, "id-1", a.ShortCode())
}

func TestIsParent(t *testing.T) {
	zero := 0

	assert.True(t, (&Asset{Type: AssetTypeFacility}).IsParent())
	// RENTAL с totalKeys — родитель даже при нулевом значении.
	assert.True(t, (&Asset{Type: AssetTypeRental, TotalKeys: &zero}).IsParent())
	assert.False(t, (&Asset{Type: AssetTypeRental}).IsParent())
	assert.False(t, (&Asset{Type: AssetTypeKey}).IsParent())
}

func TestMetadataMergeAndClone(t *testing.T) {
	base := Metadata{"a": "1", "b": "2"}
	merged := base.Merge(Metadata{"b": "3", "c": "4"})

	assert.Equal(t, "1", merged.GetString("a"))
	assert.Equal(t, "3", merged.GetString("b"))
	assert.Equal(t, "4", merged.GetString("c"))
	// Исходная карта не меняется.
	assert.Equal(t, "2", base.GetString("b"))

	clone := base.Clone()
	clone["a"] = "изменено"
	assert.Equal(t, "1", base.GetString("a"))
}

func TestMetadataTimeRoundTrip(t *testing.T) {
	m := Metadata{}
	now := time.Now().UTC().Truncate(time.Second)
	m.SetTime(MetaDueDate, now)

	got, ok := m.GetTime(MetaDueDate)
	require.True(t, ok)
	assert.True(t, got.Equal(now))

	_, ok = m.GetTime(MetaMissingSince)
	assert.False(t, ok)
}
