package model_test

import (
	"testing"

	"eventsite-api/internal/model"
)

func TestContactSubmission_NormalizeIsIdempotent(t *testing.T) {
	raw := model.ContactSubmission{
		FirstName: "  Jane ",
		LastName:  "Doe\n",
		Email:     " jane@x.com ",
		Message:   "\tLooking for a quote on a 200-person event  ",
		Company:   " Acme ",
	}
	once := raw.Normalize()
	twice := once.Normalize()
	if once != twice {
		t.Fatalf("normalize not idempotent: %+v vs %+v", once, twice)
	}
	if once.FirstName != "Jane" || once.Email != "jane@x.com" || once.Message != "Looking for a quote on a 200-person event" {
		t.Fatalf("unexpected normalized value: %+v", once)
	}
	if once.FullName() != "Jane Doe" {
		t.Fatalf("unexpected full name %q", once.FullName())
	}
}

func TestContactSubmission_IsBot(t *testing.T) {
	if (model.ContactSubmission{Website: "   "}).Normalize().IsBot() {
		t.Fatalf("blank honeypot should not count as bot")
	}
	if !(model.ContactSubmission{Website: "http://spam"}).Normalize().IsBot() {
		t.Fatalf("filled honeypot should count as bot")
	}
}
