package entities

import "time"

// AuditRecord — неизменяемый снимок одной инвентаризации.
// Создаётся один раз при подтверждении, никогда не правится.
type AuditRecord struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"orgId"`
	PerformedBy string    `json:"performedBy"`
	MissingKeys []string  `json:"missingKeys"`
	CreatedAt   time.Time `json:"date"`
}
