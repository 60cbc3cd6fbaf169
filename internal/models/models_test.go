package models

import "testing"

func TestSessionIsAdmin(t *testing.T) {
	if !(Session{Type: UserTypeAdmin}).IsAdmin() {
		t.Error("admin session should be admin")
	}
	if (Session{Type: UserTypeEmployee, Email: "test@test.com"}).IsAdmin() {
		t.Error("employee session should not be admin")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusAccepted, StatusRefused} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Status("archived").Valid() {
		t.Error("unknown status reported as valid")
	}
}

func TestBillIsDraft(t *testing.T) {
	b := &Bill{ID: "1", FileURL: "https://x/y.jpg"}
	if !b.IsDraft() {
		t.Error("bill without commit timestamp should be a draft")
	}
	b.CommittedAt = 1700000000
	if b.IsDraft() {
		t.Error("committed bill reported as draft")
	}
}
