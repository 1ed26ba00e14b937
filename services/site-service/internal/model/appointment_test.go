package model

import "testing"

func TestStatusTransitions(t *testing.T) {
	allowed := map[[2]AppointmentStatus]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusCancelled}: true,
		{StatusConfirmed, StatusCompleted}: true,
	}
	all := []AppointmentStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]AppointmentStatus{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s: got %v want %v", from, to, got, want)
			}
		}
	}
}

func TestStatusActive(t *testing.T) {
	if !StatusPending.Active() || !StatusConfirmed.Active() {
		t.Fatalf("pending and confirmed must be active")
	}
	if StatusCancelled.Active() || StatusCompleted.Active() {
		t.Fatalf("cancelled and completed must not be active")
	}
	if AppointmentStatus("booked").Valid() {
		t.Fatalf("unknown status must be invalid")
	}
}
