package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счётчики жизненного цикла активов и аудитов.
var (
	CheckOutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asset_checkouts_total",
		Help: "Количество успешных выдач активов.",
	})

	CheckInsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asset_checkins_total",
		Help: "Количество успешных возвратов активов.",
	})

	ReportedMissingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asset_reported_missing_total",
		Help: "Количество активов, отмеченных как утерянные.",
	})

	AuditsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audits_submitted_total",
		Help: "Количество проведённых инвентаризаций.",
	})

	AuditMissingKeysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "audit_missing_keys_total",
		Help: "Суммарное число ключей, не найденных при инвентаризациях.",
	})

	InvalidStateConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "asset_invalid_state_conflicts_total",
		Help: "Количество операций, отклонённых проверкой состояния (гонки операторов).",
	})
)
