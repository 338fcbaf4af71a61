package handler

import (
	"time"

	"crece-pos/internal/database/models"
)

// Stuck thresholds: orders without a status change beyond these are flagged
// for operator attention, never auto-transitioned.
const (
	stuckPendingAfter       = 2 * time.Hour
	stuckInPreparationAfter = 4 * time.Hour
)

var pedidoTransitions = map[string][]string{
	models.PedidoPending:       {models.PedidoInPreparation, models.PedidoCancelled},
	models.PedidoInPreparation: {models.PedidoReady, models.PedidoCancelled},
	models.PedidoReady:         {models.PedidoCompleted, models.PedidoCancelled},
	models.PedidoCompleted:     {},
	models.PedidoCancelled:     {},
}

func CanTransition(from, to string) bool {
	for _, allowed := range pedidoTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// EffectiveStatus applies the pre-paid shortcut: an order paid in advance
// that reaches ready skips straight to completed.
func EffectiveStatus(to string, pagoInmediato bool) string {
	if to == models.PedidoReady && pagoInmediato {
		return models.PedidoCompleted
	}
	return to
}

// ConsolidationStatus advances an order's status when it is paid as part of
// a consolidated sale. Ready orders complete; pending orders move into
// preparation unless they were pre-paid, in which case the kitchen still
// has to pick them up.
func ConsolidationStatus(current string, pagoInmediato bool) string {
	switch current {
	case models.PedidoReady:
		return models.PedidoCompleted
	case models.PedidoPending:
		if pagoInmediato {
			return models.PedidoPending
		}
		return models.PedidoInPreparation
	}
	return current
}

func IsStuck(status string, statusChangedAt, now time.Time) bool {
	switch status {
	case models.PedidoPending:
		return now.Sub(statusChangedAt) > stuckPendingAfter
	case models.PedidoInPreparation:
		return now.Sub(statusChangedAt) > stuckInPreparationAfter
	}
	return false
}
