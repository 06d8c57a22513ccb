// Package triage converts a risk assessment into a numeric score, a priority
// tier and advisory safety flags. Everything here is pure and deterministic;
// the engine runs it exactly once, at case creation.
package triage

import "caseflow/internal/domain"

// Result is the derived triage data attached to a case at creation.
type Result struct {
	Score    int             `json:"score"`
	Priority domain.Priority `json:"priority"`
	Flags    []string        `json:"flags"`
}

// CalculateScore sums the six weighted risk contributions and clamps at 100.
// Unknown enum values contribute zero, keeping the function total.
func CalculateScore(risk domain.RiskAssessment) int {
	score := riskToSelfWeights[risk.RiskToSelf]
	score += riskToOthersWeights[risk.RiskToOthers]
	score += riskFromOthersWeights[risk.RiskFromOthers]
	if risk.SafeguardingConcerns {
		score += safeguardingWeight
	}
	score += urgencyWeights[risk.Urgency]
	if risk.ChildrenInHousehold {
		score += childrenWeight
	}
	if score > maxScore {
		return maxScore
	}
	return score
}

// PriorityFromScore maps a score onto its band, highest band first.
func PriorityFromScore(score int) domain.Priority {
	for _, b := range priorityBands {
		if score >= b.Min {
			return b.Priority
		}
	}
	return domain.PriorityLow
}

// ResponseTimeframe is the service's target response time for a priority.
func ResponseTimeframe(p domain.Priority) string {
	for _, b := range priorityBands {
		if b.Priority == p {
			return b.Response
		}
	}
	return ""
}

// Flags evaluates the auto-flag conditions against the whole case and
// collects the text of every condition that holds, in declaration order.
// Flags are advisory; they never block a submission.
func Flags(c domain.Case) []string {
	flags := []string{}
	for _, af := range autoFlags {
		if af.Condition(c) {
			flags = append(flags, af.Flag)
		}
	}
	return flags
}

// Triage runs scoring, banding and flag generation for a case.
func Triage(c domain.Case) Result {
	score := CalculateScore(c.Risk)
	return Result{
		Score:    score,
		Priority: PriorityFromScore(score),
		Flags:    Flags(c),
	}
}
