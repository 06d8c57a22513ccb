package triage

import "caseflow/internal/domain"

// Weight tables agreed with the service's clinical lead. Contributions are
// independent and summed; the only normalization is the clamp at 100.
var (
	riskToSelfWeights = map[domain.RiskLevel]int{
		domain.RiskNone:   0,
		domain.RiskLow:    10,
		domain.RiskMedium: 30,
		domain.RiskHigh:   50,
	}
	riskToOthersWeights = map[domain.RiskLevel]int{
		domain.RiskNone:   0,
		domain.RiskLow:    10,
		domain.RiskMedium: 25,
		domain.RiskHigh:   45,
	}
	riskFromOthersWeights = map[domain.RiskLevel]int{
		domain.RiskNone:   0,
		domain.RiskLow:    10,
		domain.RiskMedium: 25,
		domain.RiskHigh:   45,
	}
	urgencyWeights = map[domain.UrgencyLevel]int{
		domain.UrgencyRoutine: 0,
		domain.UrgencySoon:    15,
		domain.UrgencyUrgent:  35,
		domain.UrgencyCrisis:  50,
	}
)

const (
	safeguardingWeight = 40
	childrenWeight     = 10
	maxScore           = 100
)

// Priority bands tile [0,100]; evaluated highest first so the boundaries
// are unambiguous.
type band struct {
	Min      int
	Priority domain.Priority
	Response string
}

var priorityBands = []band{
	{Min: 61, Priority: domain.PriorityUrgent, Response: "Same day"},
	{Min: 41, Priority: domain.PriorityHigh, Response: "48 hours"},
	{Min: 21, Priority: domain.PriorityMedium, Response: "5 working days"},
	{Min: 0, Priority: domain.PriorityLow, Response: "10 working days"},
}

// autoFlag pairs a condition over the whole case with its advisory text.
// Order here is the order flags appear on a case.
type autoFlag struct {
	Condition func(domain.Case) bool
	Flag      string
}

var autoFlags = []autoFlag{
	{
		Condition: func(c domain.Case) bool { return c.Risk.RiskToSelf == domain.RiskHigh },
		Flag:      "Crisis assessment required",
	},
	{
		Condition: func(c domain.Case) bool { return c.Risk.SafeguardingConcerns },
		Flag:      "Safeguarding referral required",
	},
	{
		Condition: func(c domain.Case) bool {
			return c.Risk.ChildrenInHousehold && c.Risk.RiskFromOthers != domain.RiskNone
		},
		Flag: "Children's services notification",
	},
	{
		Condition: func(c domain.Case) bool { return c.Risk.Urgency == domain.UrgencyCrisis },
		Flag:      "Immediate response required",
	},
}
