package triage_test

import (
	"reflect"
	"testing"

	"caseflow/internal/domain"
	"caseflow/internal/triage"
)

func TestCalculateScoreSumsContributions(t *testing.T) {
	risk := domain.RiskAssessment{
		RiskToSelf:     domain.RiskMedium,
		RiskToOthers:   domain.RiskLow,
		RiskFromOthers: domain.RiskNone,
		Urgency:        domain.UrgencySoon,
	}
	// 30 + 10 + 0 + 15
	if got := triage.CalculateScore(risk); got != 55 {
		t.Fatalf("score = %d, want 55", got)
	}
}

func TestCalculateScoreClampsAtHundred(t *testing.T) {
	risk := domain.RiskAssessment{
		RiskToSelf:           domain.RiskHigh,
		RiskToOthers:         domain.RiskHigh,
		RiskFromOthers:       domain.RiskHigh,
		ChildrenInHousehold:  true,
		SafeguardingConcerns: true,
		Urgency:              domain.UrgencyCrisis,
	}
	if got := triage.CalculateScore(risk); got != 100 {
		t.Fatalf("score = %d, want 100 (clamped)", got)
	}
}

func TestCalculateScoreAllNoneIsZero(t *testing.T) {
	risk := domain.RiskAssessment{
		RiskToSelf:     domain.RiskNone,
		RiskToOthers:   domain.RiskNone,
		RiskFromOthers: domain.RiskNone,
		Urgency:        domain.UrgencyRoutine,
	}
	if got := triage.CalculateScore(risk); got != 0 {
		t.Fatalf("score = %d, want 0", got)
	}
}

func TestPriorityBandBoundaries(t *testing.T) {
	cases := []struct {
		score int
		want  domain.Priority
	}{
		{0, domain.PriorityLow},
		{20, domain.PriorityLow},
		{21, domain.PriorityMedium},
		{40, domain.PriorityMedium},
		{41, domain.PriorityHigh},
		{60, domain.PriorityHigh},
		{61, domain.PriorityUrgent},
		{100, domain.PriorityUrgent},
	}
	for _, tc := range cases {
		if got := triage.PriorityFromScore(tc.score); got != tc.want {
			t.Errorf("PriorityFromScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestResponseTimeframes(t *testing.T) {
	cases := map[domain.Priority]string{
		domain.PriorityLow:    "10 working days",
		domain.PriorityMedium: "5 working days",
		domain.PriorityHigh:   "48 hours",
		domain.PriorityUrgent: "Same day",
	}
	for p, want := range cases {
		if got := triage.ResponseTimeframe(p); got != want {
			t.Errorf("ResponseTimeframe(%s) = %q, want %q", p, got, want)
		}
	}
}

func TestFlagsOrderAndConditions(t *testing.T) {
	c := domain.Case{
		Risk: domain.RiskAssessment{
			RiskToSelf:           domain.RiskHigh,
			RiskFromOthers:       domain.RiskLow,
			ChildrenInHousehold:  true,
			SafeguardingConcerns: true,
			Urgency:              domain.UrgencyCrisis,
		},
	}
	want := []string{
		"Crisis assessment required",
		"Safeguarding referral required",
		"Children's services notification",
		"Immediate response required",
	}
	if got := triage.Flags(c); !reflect.DeepEqual(got, want) {
		t.Fatalf("flags = %v, want %v", got, want)
	}
}

func TestFlagsEmptyForQuietCase(t *testing.T) {
	c := domain.Case{
		Risk: domain.RiskAssessment{
			RiskToSelf:     domain.RiskMedium,
			RiskFromOthers: domain.RiskNone,
			Urgency:        domain.UrgencyUrgent,
		},
	}
	got := triage.Flags(c)
	if got == nil {
		t.Fatal("flags should be an empty slice, not nil")
	}
	if len(got) != 0 {
		t.Fatalf("flags = %v, want none", got)
	}
}

func TestChildrenFlagRequiresRiskFromOthers(t *testing.T) {
	c := domain.Case{
		Risk: domain.RiskAssessment{
			ChildrenInHousehold: true,
			RiskFromOthers:      domain.RiskNone,
		},
	}
	if got := triage.Flags(c); len(got) != 0 {
		t.Fatalf("flags = %v, want none when risk from others is none", got)
	}
	c.Risk.RiskFromOthers = domain.RiskLow
	got := triage.Flags(c)
	if len(got) != 1 || got[0] != "Children's services notification" {
		t.Fatalf("flags = %v, want children's services only", got)
	}
}

func TestTriageIsDeterministic(t *testing.T) {
	c := domain.Case{
		Risk: domain.RiskAssessment{
			RiskToSelf:           domain.RiskHigh,
			RiskToOthers:         domain.RiskMedium,
			SafeguardingConcerns: true,
			Urgency:              domain.UrgencyUrgent,
		},
	}
	first := triage.Triage(c)
	second := triage.Triage(c)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("triage not deterministic: %+v vs %+v", first, second)
	}
	if first.Score != 100 || first.Priority != domain.PriorityUrgent {
		t.Fatalf("result = %+v, want score 100 urgent", first)
	}
}
