package types

import "testing"

func TestStatusValidation(t *testing.T) {
	for _, s := range []Status{StatusTodo, StatusInProgress, StatusDone, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}

	for _, s := range []Status{"", "todo", "SHIPPED"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestPriorityValidation(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent} {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}

	if Priority("ASAP").Valid() {
		t.Error("ASAP should be invalid")
	}
}

func TestLabelsSeparateFromStorageValue(t *testing.T) {
	if StatusInProgress.Label() != "In Progress" {
		t.Errorf("label = %q", StatusInProgress.Label())
	}
	if string(StatusInProgress) == StatusInProgress.Label() {
		t.Error("storage value and display label must differ")
	}
	if PriorityUrgent.Label() != "Urgent" {
		t.Errorf("label = %q", PriorityUrgent.Label())
	}
	// Unknown values fall back to the raw string.
	if Status("LEGACY").Label() != "LEGACY" {
		t.Errorf("fallback label = %q", Status("LEGACY").Label())
	}
}
