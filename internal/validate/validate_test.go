package validate_test

import (
	"testing"
	"time"

	"caseflow/internal/schema"
	"caseflow/internal/validate"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fieldByID(t *testing.T, id string) schema.Field {
	t.Helper()
	for _, f := range schema.Fields() {
		if f.ID == id {
			return f
		}
	}
	t.Fatalf("field %s not in schema", id)
	return schema.Field{}
}

func TestRequiredFieldEmpty(t *testing.T) {
	f := fieldByID(t, "client.full_name")
	got := validate.Field(f, "", schema.Answers{}, testNow)
	if got != "Full name is required" {
		t.Fatalf("message = %q", got)
	}
	if got := validate.Field(f, nil, schema.Answers{}, testNow); got != "Full name is required" {
		t.Fatalf("nil message = %q", got)
	}
	if got := validate.Field(f, "   ", schema.Answers{}, testNow); got != "Full name is required" {
		t.Fatalf("whitespace message = %q", got)
	}
}

func TestMinLength(t *testing.T) {
	f := fieldByID(t, "client.full_name")
	if got := validate.Field(f, "A", schema.Answers{}, testNow); got != "Must be at least 2 characters" {
		t.Fatalf("message = %q", got)
	}
	if got := validate.Field(f, "Al", schema.Answers{}, testNow); got != "" {
		t.Fatalf("valid name rejected: %q", got)
	}
}

func TestPatternMessages(t *testing.T) {
	phone := fieldByID(t, "client.phone")
	if got := validate.Field(phone, "12345", schema.Answers{}, testNow); got == "" {
		t.Fatal("bad phone accepted")
	}
	if got := validate.Field(phone, "07700900123", schema.Answers{}, testNow); got != "" {
		t.Fatalf("good phone rejected: %q", got)
	}
	if got := validate.Field(phone, "+447700900123", schema.Answers{}, testNow); got != "" {
		t.Fatalf("international phone rejected: %q", got)
	}

	email := fieldByID(t, "client.email")
	if got := validate.Field(email, "not-an-email", schema.Answers{}, testNow); got == "" {
		t.Fatal("bad email accepted")
	}
	if got := validate.Field(email, "jo@example.org", schema.Answers{}, testNow); got != "" {
		t.Fatalf("good email rejected: %q", got)
	}
}

func TestOptionalEmptySkipsChecks(t *testing.T) {
	email := fieldByID(t, "client.email")
	if got := validate.Field(email, "", schema.Answers{}, testNow); got != "" {
		t.Fatalf("empty optional flagged: %q", got)
	}
}

func TestDateNotInFuture(t *testing.T) {
	dob := fieldByID(t, "client.date_of_birth")
	if got := validate.Field(dob, "2030-01-01", schema.Answers{}, testNow); got != "Date cannot be in the future" {
		t.Fatalf("message = %q", got)
	}
	if got := validate.Field(dob, "1990-05-15", schema.Answers{}, testNow); got != "" {
		t.Fatalf("past date rejected: %q", got)
	}
}

func TestNumberBounds(t *testing.T) {
	n := fieldByID(t, "risk.number_of_children")
	answers := schema.Answers{"risk.children_in_household": "true"}
	if got := validate.Field(n, "0", answers, testNow); got != "Must be at least 1" {
		t.Fatalf("low message = %q", got)
	}
	if got := validate.Field(n, "25", answers, testNow); got != "Must be no more than 20" {
		t.Fatalf("high message = %q", got)
	}
	if got := validate.Field(n, "3", answers, testNow); got != "" {
		t.Fatalf("valid count rejected: %q", got)
	}
}

func TestInvisibleFieldNeverFails(t *testing.T) {
	n := fieldByID(t, "risk.number_of_children")
	// children_in_household not set, so the count field is hidden
	if got := validate.Field(n, "0", schema.Answers{}, testNow); got != "" {
		t.Fatalf("hidden field flagged: %q", got)
	}
}

func TestConditionallyRequiredReferrer(t *testing.T) {
	name := fieldByID(t, "referral.referrer_name")
	self := schema.Answers{"referral.source": "self"}
	gp := schema.Answers{"referral.source": "gp"}
	if got := validate.Field(name, "", self, testNow); got != "" {
		t.Fatalf("self referral should not need a referrer name: %q", got)
	}
	if got := validate.Field(name, "", gp, testNow); got != "Referrer name is required" {
		t.Fatalf("message = %q", got)
	}
}

func TestCheckboxMustBeConfirmed(t *testing.T) {
	consent := fieldByID(t, "consent.contact_client")
	if got := validate.Field(consent, "false", schema.Answers{}, testNow); got != "You must confirm this" {
		t.Fatalf("message = %q", got)
	}
	if got := validate.Field(consent, "true", schema.Answers{}, testNow); got != "" {
		t.Fatalf("confirmed checkbox rejected: %q", got)
	}
	if got := validate.Field(consent, true, schema.Answers{}, testNow); got != "" {
		t.Fatalf("boolean true rejected: %q", got)
	}
}

func TestMultiselectRequiresAtLeastOne(t *testing.T) {
	reasons := fieldByID(t, "referral.reasons")
	if got := validate.Field(reasons, []string{}, schema.Answers{}, testNow); got != "Please select at least one option" {
		t.Fatalf("message = %q", got)
	}
	if got := validate.Field(reasons, []string{"housing"}, schema.Answers{}, testNow); got != "" {
		t.Fatalf("selected option rejected: %q", got)
	}
	if got := validate.Field(reasons, []any{"housing"}, schema.Answers{}, testNow); got != "" {
		t.Fatalf("json-decoded selection rejected: %q", got)
	}
}

func TestSectionCollectsPerFieldErrors(t *testing.T) {
	answers := schema.Answers{
		"client.full_name":     "A",
		"client.date_of_birth": "1990-05-15",
		"client.email":         "nope",
	}
	errs := validate.Section("client", schema.Fields(), answers, testNow)
	if len(errs) != 2 {
		t.Fatalf("errors = %v, want full_name and email only", errs)
	}
	if _, ok := errs["client.full_name"]; !ok {
		t.Fatal("missing full_name error")
	}
	if _, ok := errs["client.email"]; !ok {
		t.Fatal("missing email error")
	}
}

func TestAllCoversEverySection(t *testing.T) {
	errs := validate.All(schema.Sections(), schema.Fields(), schema.Answers{}, testNow)
	for _, id := range []string{
		"client.full_name",
		"referral.source",
		"referral.date_received",
		"referral.reasons",
		"referral.support_requested",
		"risk.risk_to_self",
		"risk.urgency",
		"consent.share_information",
		"consent.contact_client",
	} {
		if _, ok := errs[id]; !ok {
			t.Errorf("expected required error for %s", id)
		}
	}
}
