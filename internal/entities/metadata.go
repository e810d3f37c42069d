package entities

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Ключи metaData. Набор открытый: импорт может принести поля, которых
// здесь нет, они сохраняются как есть.
const (
	MetaCurrentHolder     = "currentHolder"
	MetaHolderCompany     = "holderCompany"
	MetaCheckedOutAt      = "checkedOutAt"
	MetaDueDate           = "dueDate"
	MetaLoanType          = "loanType"
	MetaMissingSince      = "missingSince"
	MetaMissingReason     = "missingReason"
	MetaKeyCode           = "keyCode"
	MetaParentAssetID     = "assetId"
	MetaLocation          = "location"
	MetaLastAuditDate     = "lastAuditDate"
	MetaRegistrationPlate = "registrationPlate"
	MetaSerialNumber      = "serialNumber"
	MetaTenantName        = "tenantName"
)

// KnownMetaFields — реестр типовых полей по виду актива. Используется
// импортом для раскладки колонок, не ограничивает набор ключей.
var KnownMetaFields = map[AssetType][]string{
	AssetTypeKey:      {MetaKeyCode, MetaParentAssetID, MetaLocation},
	AssetTypeITDevice: {MetaSerialNumber, MetaLocation},
	AssetTypeVehicle:  {MetaRegistrationPlate, MetaLocation},
	AssetTypeRental:   {MetaTenantName, MetaLocation},
	AssetTypeFacility: {MetaLocation},
}

// Metadata — типоспецифичные поля актива. Хранится одной JSONB-колонкой,
// чтобы разные виды активов жили в одной таблице без отдельных схем.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	default:
		return fmt.Errorf("неподдерживаемый тип для Metadata: %T", src)
	}
}

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge возвращает копию m с наложенными поверх полями patch.
// Значение nil в patch обнуляет поле (undefined в документе не живёт,
// превращаем в null).
func (m Metadata) Merge(patch Metadata) Metadata {
	out := m.Clone()
	if out == nil {
		out = Metadata{}
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

func (m Metadata) GetString(key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// GetTime разбирает значение-время, сохранённое строкой RFC3339.
func (m Metadata) GetTime(key string) (time.Time, bool) {
	s := m.GetString(key)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m Metadata) SetTime(key string, t time.Time) {
	m[key] = t.UTC().Format(time.RFC3339)
}

// StringValues возвращает все строковые значения метаданных —
// сырьё для searchKeywords.
func (m Metadata) StringValues() []string {
	var out []string
	for _, v := range m {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
