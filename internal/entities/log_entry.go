package entities

import "time"

type LogAction string

const (
	ActionCheckIn       LogAction = "CHECK_IN"
	ActionCheckOut      LogAction = "CHECK_OUT"
	ActionReportMissing LogAction = "REPORT_MISSING"
	ActionCreate        LogAction = "CREATE"
	ActionUpdate        LogAction = "UPDATE"
	ActionDelete        LogAction = "DELETE"
)

// LogEntry — запись журнала действий. Только добавляется,
// читается для истории и отчётов.
type LogEntry struct {
	ID        uint64    `json:"id"`
	OrgID     string    `json:"orgId"`
	AssetID   string    `json:"assetId"`
	AssetName string    `json:"assetName"`
	Action    LogAction `json:"action"`
	ActorID   uint64    `json:"actorId"`
	ActorName string    `json:"actorName"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}
