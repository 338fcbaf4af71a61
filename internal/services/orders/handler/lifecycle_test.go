package handler

import (
	"testing"
	"time"

	"crece-pos/internal/database/models"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{models.PedidoPending, models.PedidoInPreparation},
		{models.PedidoPending, models.PedidoCancelled},
		{models.PedidoInPreparation, models.PedidoReady},
		{models.PedidoInPreparation, models.PedidoCancelled},
		{models.PedidoReady, models.PedidoCompleted},
		{models.PedidoReady, models.PedidoCancelled},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tc.from, tc.to)
		}
	}

	forbidden := []struct{ from, to string }{
		{models.PedidoPending, models.PedidoReady},
		{models.PedidoPending, models.PedidoCompleted},
		{models.PedidoInPreparation, models.PedidoCompleted},
		{models.PedidoCompleted, models.PedidoPending},
		{models.PedidoCancelled, models.PedidoInPreparation},
		{models.PedidoReady, models.PedidoPending},
	}
	for _, tc := range forbidden {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tc.from, tc.to)
		}
	}
}

func TestEffectiveStatusPrePaidAutoCompletes(t *testing.T) {
	if got := EffectiveStatus(models.PedidoReady, true); got != models.PedidoCompleted {
		t.Errorf("pre-paid order reaching ready = %s, want completed", got)
	}
	if got := EffectiveStatus(models.PedidoReady, false); got != models.PedidoReady {
		t.Errorf("unpaid order reaching ready = %s, want ready", got)
	}
	if got := EffectiveStatus(models.PedidoInPreparation, true); got != models.PedidoInPreparation {
		t.Errorf("pre-paid shortcut must only apply at ready, got %s", got)
	}
}

func TestConsolidationStatus(t *testing.T) {
	cases := []struct {
		current       string
		pagoInmediato bool
		want          string
	}{
		{models.PedidoReady, false, models.PedidoCompleted},
		{models.PedidoReady, true, models.PedidoCompleted},
		{models.PedidoPending, false, models.PedidoInPreparation},
		{models.PedidoPending, true, models.PedidoPending},
		{models.PedidoInPreparation, false, models.PedidoInPreparation},
	}
	for _, tc := range cases {
		if got := ConsolidationStatus(tc.current, tc.pagoInmediato); got != tc.want {
			t.Errorf("ConsolidationStatus(%s, %v) = %s, want %s",
				tc.current, tc.pagoInmediato, got, tc.want)
		}
	}
}

func TestIsStuck(t *testing.T) {
	now := time.Now()
	cases := []struct {
		status string
		age    time.Duration
		want   bool
	}{
		{models.PedidoPending, 90 * time.Minute, false},
		{models.PedidoPending, 3 * time.Hour, true},
		{models.PedidoInPreparation, 3 * time.Hour, false},
		{models.PedidoInPreparation, 5 * time.Hour, true},
		{models.PedidoReady, 24 * time.Hour, false},
		{models.PedidoCompleted, 24 * time.Hour, false},
	}
	for _, tc := range cases {
		if got := IsStuck(tc.status, now.Add(-tc.age), now); got != tc.want {
			t.Errorf("IsStuck(%s, %s old) = %v, want %v", tc.status, tc.age, got, tc.want)
		}
	}
}

func TestMergeItemsSumsIdenticalSelections(t *testing.T) {
	itemA := models.SaleItem{
		ProductID: 1,
		Name:      "Hamburguesa",
		Quantity:  2,
		Toppings: []models.ItemTopping{
			{ToppingID: 10, ToppingName: "Queso", Price: "2000.00", Quantity: 1},
		},
		Variations: map[string][]string{"Salsa": {"BBQ"}},
	}
	itemB := itemA
	itemB.Quantity = 3

	distinctNote := itemA
	distinctNote.Quantity = 1
	distinctNote.Note = "sin cebolla"

	lines := mergeItems([]models.Pedido{
		{Items: models.SaleItems{itemA}},
		{Items: models.SaleItems{itemB, distinctNote}},
	})

	if len(lines) != 2 {
		t.Fatalf("merged into %d lines, want 2", len(lines))
	}
	if lines[0].Quantity != 5 {
		t.Errorf("merged quantity = %d, want 5", lines[0].Quantity)
	}
	if lines[1].Note != "sin cebolla" || lines[1].Quantity != 1 {
		t.Errorf("noted line not kept distinct: %+v", lines[1])
	}
	if len(lines[0].Toppings) != 1 || lines[0].Toppings[0].ToppingID != 10 {
		t.Errorf("toppings not carried over: %+v", lines[0].Toppings)
	}
}

func TestMergeItemsPreservesFirstSeenOrder(t *testing.T) {
	first := models.SaleItem{ProductID: 1, Name: "A", Quantity: 1}
	second := models.SaleItem{ProductID: 2, Name: "B", Quantity: 1}

	lines := mergeItems([]models.Pedido{
		{Items: models.SaleItems{first, second}},
		{Items: models.SaleItems{second, first}},
	})

	if len(lines) != 2 {
		t.Fatalf("merged into %d lines, want 2", len(lines))
	}
	if lines[0].ProductID != 1 || lines[1].ProductID != 2 {
		t.Errorf("order not preserved: got products %d, %d", lines[0].ProductID, lines[1].ProductID)
	}
	if lines[0].Quantity != 2 || lines[1].Quantity != 2 {
		t.Errorf("quantities = %d, %d, want 2, 2", lines[0].Quantity, lines[1].Quantity)
	}
}
