package intake_test

import (
	"reflect"
	"testing"
	"time"

	"caseflow/internal/domain"
	"caseflow/internal/intake"
	"caseflow/internal/schema"
)

var buildNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func TestBuildDefaults(t *testing.T) {
	c := intake.Build(schema.Answers{}, "case-1", buildNow)
	if c.ID != "case-1" {
		t.Fatalf("id = %s", c.ID)
	}
	if c.Status != domain.StatusNew {
		t.Fatalf("status = %s, want new", c.Status)
	}
	if c.Priority != domain.PriorityLow || c.TriageScore != 0 {
		t.Fatalf("priority/score = %s/%d, want low/0", c.Priority, c.TriageScore)
	}
	if c.Client.PreferredContact != "phone" {
		t.Fatalf("preferred contact = %s, want phone", c.Client.PreferredContact)
	}
	if c.Referral.Source != "self" {
		t.Fatalf("referral source = %s, want self", c.Referral.Source)
	}
	if c.Risk.RiskToSelf != domain.RiskNone || c.Risk.Urgency != domain.UrgencyRoutine {
		t.Fatalf("risk defaults wrong: %+v", c.Risk)
	}
	if c.Flags == nil || c.Notes == nil || c.Referral.Reasons == nil {
		t.Fatal("slice fields must be empty, not nil")
	}
	if c.CreatedAt != "2024-06-01T09:30:00Z" || c.UpdatedAt != c.CreatedAt {
		t.Fatalf("timestamps = %s / %s", c.CreatedAt, c.UpdatedAt)
	}
}

func TestBuildRoutesAnswers(t *testing.T) {
	answers := schema.Answers{
		"client.full_name":           "Sam Patel",
		"client.email":               "sam@example.org",
		"referral.source":            "gp",
		"referral.referrer_name":     "Dr Reed",
		"referral.reasons":           []any{"housing", "isolation"},
		"risk.risk_to_self":          "medium",
		"risk.children_in_household": "true",
		"risk.number_of_children":    "2",
		"risk.urgency":               "soon",
		"consent.share_information":  "true",
		"consent.contact_client":     "true",
		"consent.preferred_times":    []string{"morning"},
	}
	c := intake.Build(answers, "case-2", buildNow)
	if c.Client.FullName != "Sam Patel" || c.Client.Email != "sam@example.org" {
		t.Fatalf("client = %+v", c.Client)
	}
	if c.Referral.Source != "gp" || c.Referral.ReferrerName != "Dr Reed" {
		t.Fatalf("referral = %+v", c.Referral)
	}
	if !reflect.DeepEqual(c.Referral.Reasons, []string{"housing", "isolation"}) {
		t.Fatalf("reasons = %v", c.Referral.Reasons)
	}
	if c.Risk.RiskToSelf != domain.RiskMedium || !c.Risk.ChildrenInHousehold || c.Risk.NumberOfChildren != 2 {
		t.Fatalf("risk = %+v", c.Risk)
	}
	if !c.Consent.ShareInformation || !c.Consent.ContactClient {
		t.Fatalf("consent = %+v", c.Consent)
	}
	// medium risk to self (30) + soon (15) + children (10) = 55 -> high, no flags -> status new
	if c.TriageScore != 55 || c.Priority != domain.PriorityHigh {
		t.Fatalf("triage = %d/%s, want 55/high", c.TriageScore, c.Priority)
	}
	if c.Status != domain.StatusNew {
		t.Fatalf("status = %s, want new (no flags)", c.Status)
	}
}

func TestBuildFlagsPromoteToTriaged(t *testing.T) {
	answers := schema.Answers{
		"risk.risk_to_self": "high",
	}
	c := intake.Build(answers, "case-3", buildNow)
	if len(c.Flags) == 0 {
		t.Fatal("expected crisis assessment flag")
	}
	if c.Status != domain.StatusTriaged {
		t.Fatalf("status = %s, want triaged", c.Status)
	}
}

func TestBuildIgnoresMalformedKeys(t *testing.T) {
	answers := schema.Answers{
		"nodots":           "x",
		"unknown.property": "y",
		"bogus.section":    true,
		"client.full_name": "Kim",
	}
	c := intake.Build(answers, "case-4", buildNow)
	if c.Client.FullName != "Kim" {
		t.Fatalf("full name = %s", c.Client.FullName)
	}
}

func TestBuildBooleanCoercion(t *testing.T) {
	c := intake.Build(schema.Answers{
		"risk.safeguarding_concerns": true,
		"risk.children_in_household": "false",
	}, "case-5", buildNow)
	if !c.Risk.SafeguardingConcerns {
		t.Fatal("bool true not applied")
	}
	if c.Risk.ChildrenInHousehold {
		t.Fatal(`"false" string should coerce to false`)
	}
}

func TestFlattenRoundTrips(t *testing.T) {
	answers := schema.Answers{
		"client.full_name":           "Sam Patel",
		"referral.source":            "police",
		"referral.reasons":           []string{"housing"},
		"risk.risk_to_self":          "low",
		"risk.children_in_household": "true",
		"risk.number_of_children":    "3",
		"risk.urgency":               "urgent",
		"consent.share_information":  "true",
	}
	c := intake.Build(answers, "case-6", buildNow)
	flat := intake.Flatten(c)
	rebuilt := intake.Build(flat, "case-6", buildNow)

	if rebuilt.Client.FullName != c.Client.FullName {
		t.Fatalf("full name lost: %q", rebuilt.Client.FullName)
	}
	if rebuilt.Referral.Source != c.Referral.Source {
		t.Fatalf("source lost: %q", rebuilt.Referral.Source)
	}
	if rebuilt.Risk.NumberOfChildren != 3 || !rebuilt.Risk.ChildrenInHousehold {
		t.Fatalf("risk lost: %+v", rebuilt.Risk)
	}
	if rebuilt.TriageScore != c.TriageScore || rebuilt.Priority != c.Priority {
		t.Fatalf("triage drifted: %d/%s vs %d/%s", rebuilt.TriageScore, rebuilt.Priority, c.TriageScore, c.Priority)
	}
}
