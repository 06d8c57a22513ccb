package domain

// CaseStatus is the lifecycle state of a case. Closed is terminal.
type CaseStatus string

const (
	StatusNew        CaseStatus = "new"
	StatusTriaged    CaseStatus = "triaged"
	StatusAssigned   CaseStatus = "assigned"
	StatusInProgress CaseStatus = "in_progress"
	StatusClosed     CaseStatus = "closed"
)

// Priority is derived from the triage score at creation and never recomputed.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type UrgencyLevel string

const (
	UrgencyRoutine UrgencyLevel = "routine"
	UrgencySoon    UrgencyLevel = "soon"
	UrgencyUrgent  UrgencyLevel = "urgent"
	UrgencyCrisis  UrgencyLevel = "crisis"
)

type OutcomeType string

const (
	OutcomeEngaged     OutcomeType = "engaged"
	OutcomeDeclined    OutcomeType = "declined"
	OutcomeReferredOn  OutcomeType = "referred_on"
	OutcomeNoContact   OutcomeType = "no_contact"
	OutcomeNotEligible OutcomeType = "not_eligible"
	OutcomeOther       OutcomeType = "other"
)

type ClientDetails struct {
	FullName           string   `json:"full_name"`
	DateOfBirth        string   `json:"date_of_birth"`
	Phone              string   `json:"phone,omitempty"`
	Email              string   `json:"email,omitempty"`
	Address            string   `json:"address,omitempty"`
	Postcode           string   `json:"postcode,omitempty"`
	PreferredContact   string   `json:"preferred_contact"`
	CommunicationNeeds []string `json:"communication_needs"`
	GPPractice         string   `json:"gp_practice,omitempty"`
	NHSNumber          string   `json:"nhs_number,omitempty"`
}

type ReferralDetails struct {
	Source               string   `json:"source"`
	ReferrerName         string   `json:"referrer_name,omitempty"`
	ReferrerOrganisation string   `json:"referrer_organisation,omitempty"`
	ReferrerContact      string   `json:"referrer_contact,omitempty"`
	DateReceived         string   `json:"date_received"`
	Reasons              []string `json:"reasons"`
	SupportRequested     string   `json:"support_requested"`
}

// RiskAssessment feeds triage scoring. NumberOfChildren is meaningful only
// when ChildrenInHousehold is true, SafeguardingDetails only when
// SafeguardingConcerns is true; the intake schema's visibility predicates
// enforce that, not the type.
type RiskAssessment struct {
	RiskToSelf           RiskLevel    `json:"risk_to_self" enum:"none,low,medium,high"`
	RiskToOthers         RiskLevel    `json:"risk_to_others" enum:"none,low,medium,high"`
	RiskFromOthers       RiskLevel    `json:"risk_from_others" enum:"none,low,medium,high"`
	ChildrenInHousehold  bool         `json:"children_in_household"`
	NumberOfChildren     int          `json:"number_of_children,omitempty"`
	SafeguardingConcerns bool         `json:"safeguarding_concerns"`
	SafeguardingDetails  string       `json:"safeguarding_details,omitempty"`
	Urgency              UrgencyLevel `json:"urgency" enum:"routine,soon,urgent,crisis"`
}

type ConsentDetails struct {
	ShareInformation     bool     `json:"share_information"`
	ContactClient        bool     `json:"contact_client"`
	PreferredTimes       []string `json:"preferred_times"`
	BarriersToEngagement string   `json:"barriers_to_engagement,omitempty"`
}

// Note is owned by its parent case; the notes list is append-only.
type Note struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at" format:"date-time"`
	CreatedBy string `json:"created_by,omitempty"`
}

// CaseOutcome is set exactly once, when the case closes.
type CaseOutcome struct {
	Type       OutcomeType `json:"type" enum:"engaged,declined,referred_on,no_contact,not_eligible,other"`
	Details    string      `json:"details,omitempty"`
	ClosedDate string      `json:"closed_date" format:"date-time"`
}

// Case is a single client referral tracked through its lifecycle. Score,
// priority and flags are derived at creation and frozen thereafter.
type Case struct {
	ID          string          `json:"id"`
	Status      CaseStatus      `json:"status" enum:"new,triaged,assigned,in_progress,closed"`
	Priority    Priority        `json:"priority" enum:"low,medium,high,urgent"`
	TriageScore int             `json:"triage_score"`
	Flags       []string        `json:"flags"`
	Client      ClientDetails   `json:"client"`
	Referral    ReferralDetails `json:"referral"`
	Risk        RiskAssessment  `json:"risk"`
	Consent     ConsentDetails  `json:"consent"`
	AssignedTo  string          `json:"assigned_to,omitempty"`
	Notes       []Note          `json:"notes"`
	Outcome     *CaseOutcome    `json:"outcome,omitempty"`
	CreatedAt   string          `json:"created_at" format:"date-time"`
	UpdatedAt   string          `json:"updated_at" format:"date-time"`
}

// Closed reports whether the case has reached its terminal state.
func (c Case) Closed() bool { return c.Status == StatusClosed }

// Event is one entry in the append-only audit log.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	CaseID  string `json:"case_id,omitempty"`
	Actor   string `json:"actor"`
	Payload string `json:"payload_json"`
}
