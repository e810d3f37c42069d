package dto

// GroupCountDTO — введённое оператором количество по одной бирке.
// Count приходит сырой строкой: поле на форме свободное, мусор и
// пустота трактуются как 0.
type GroupCountDTO struct {
	Code  string `json:"code" validate:"required"`
	Count string `json:"count"`
}

type SubmitAuditDTO struct {
	Counts []GroupCountDTO `json:"counts" validate:"required,dive"`
}

type AuditGroupBreakdownDTO struct {
	Code     string `json:"code"`
	Expected int    `json:"expected"`
	Counted  int    `json:"counted"`
}

// AuditExportRowDTO — строка выгрузки недостачи. Если актив уже
// удалён из хранилища, заполнен только AssetID.
type AuditExportRowDTO struct {
	AssetID string `json:"assetId"`
	Code    string `json:"code,omitempty"`
	Name    string `json:"name,omitempty"`
	Area    string `json:"area,omitempty"`
	Status  string `json:"status,omitempty"`
}

// AuditSummaryDTO — контракт для внешнего рендера отчёта.
// StampErrors — отказы best-effort проставления lastAuditDate;
// они не валят инвентаризацию, но и не исчезают молча.
type AuditSummaryDTO struct {
	AuditID         string                   `json:"auditId"`
	ExpectedTotal   int                      `json:"expectedTotal"`
	CountedTotal    int                      `json:"countedTotal"`
	MissingAssetIDs []string                 `json:"missingAssetIds"`
	GroupBreakdown  []AuditGroupBreakdownDTO `json:"groupBreakdown"`
	StampErrors     []string                 `json:"stampErrors,omitempty"`
}
