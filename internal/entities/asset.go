package entities

import (
	"sort"
	"strings"
	"time"
)

type AssetType string

const (
	AssetTypeKey      AssetType = "KEY"
	AssetTypeITDevice AssetType = "IT_DEVICE"
	AssetTypeVehicle  AssetType = "VEHICLE"
	AssetTypeRental   AssetType = "RENTAL"
	AssetTypeFacility AssetType = "FACILITY"
)

type AssetStatus string

const (
	StatusAvailable   AssetStatus = "AVAILABLE"
	StatusCheckedOut  AssetStatus = "CHECKED_OUT"
	StatusMissing     AssetStatus = "MISSING"
	StatusMaintenance AssetStatus = "MAINTENANCE"
	StatusRetired     AssetStatus = "RETIRED"
)

// Asset — единая полиморфная сущность для всего отслеживаемого:
// ключи, техника, транспорт, арендные объекты и родительские объекты
// (двери/помещения), которым принадлежат копии ключей.
type Asset struct {
	ID             string      `json:"id"`
	OrgID          string      `json:"orgId"`
	Name           string      `json:"name"`
	Type           AssetType   `json:"type"`
	Status         AssetStatus `json:"status"`
	Area           string      `json:"area"`
	TotalKeys      *int        `json:"totalKeys,omitempty"`
	QRCode         string      `json:"qrCode,omitempty"`
	MetaData       Metadata    `json:"metaData"`
	SearchKeywords []string    `json:"searchKeywords"`
	CheckedOutAt   *time.Time  `json:"checkedOutAt,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// IsParent сообщает, является ли актив родительским (дверь/объект,
// владеющий копиями ключей). RENTAL с заполненным totalKeys — это
// исторический артефакт импорта: структурно такой актив тоже родитель,
// даже если totalKeys равен нулю.
func (a *Asset) IsParent() bool {
	if a.Type == AssetTypeFacility {
		return true
	}
	return a.Type == AssetTypeRental && a.TotalKeys != nil
}

// ShortCode — видимая бирка ключа. Несколько физических копий могут
// нести одинаковую бирку; при её отсутствии кодом служит id.
func (a *Asset) ShortCode() string {
	if code := a.MetaData.GetString(MetaKeyCode); code != "" {
		return code
	}
	if a.QRCode != "" {
		return a.QRCode
	}
	return a.ID
}

// CurrentHolder возвращает текущего (или последнего известного) держателя.
func (a *Asset) CurrentHolder() string {
	return a.MetaData.GetString(MetaCurrentHolder)
}

// DueDate осмыслен только в статусе CHECKED_OUT.
func (a *Asset) DueDate() (time.Time, bool) {
	return a.MetaData.GetTime(MetaDueDate)
}

// RebuildSearchKeywords пересобирает денормализованный индекс поиска.
// Вызывается на каждой мутации, которая меняет индексируемые поля:
// имя, qr-код или строковые метаданные.
func (a *Asset) RebuildSearchKeywords() {
	a.SearchKeywords = BuildSearchKeywords(a.Name, a.QRCode, a.MetaData)
}

// BuildSearchKeywords собирает множество строчных токенов: слова имени,
// имя целиком, qr-код и все строковые значения метаданных.
func BuildSearchKeywords(name, qrCode string, meta Metadata) []string {
	set := make(map[string]struct{})

	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}

	for _, word := range strings.Fields(name) {
		add(word)
	}
	add(name)
	add(qrCode)
	for _, v := range meta.StringValues() {
		add(v)
	}

	out := make([]string, 0, len(set))
	for kw := range set {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}
