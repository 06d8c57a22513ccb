// Package intake turns flat form answers into a triaged case and back.
// Answer keys follow the schema's "section.property" ids; anything that does
// not match a known key is dropped silently, so stale drafts built against an
// older form version still load.
package intake

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"caseflow/internal/domain"
	"caseflow/internal/schema"
	"caseflow/internal/triage"
)

// Build assembles a case from answers, runs triage over it and stamps the
// audit timestamps. A case that triggers any auto-flag starts life triaged;
// an otherwise clean one starts as new.
func Build(answers schema.Answers, id string, now time.Time) domain.Case {
	c := domain.Case{
		ID:       id,
		Status:   domain.StatusNew,
		Priority: domain.PriorityLow,
		Flags:    []string{},
		Client: domain.ClientDetails{
			PreferredContact:   "phone",
			CommunicationNeeds: []string{},
		},
		Referral: domain.ReferralDetails{
			Source:  "self",
			Reasons: []string{},
		},
		Risk: domain.RiskAssessment{
			RiskToSelf:     domain.RiskNone,
			RiskToOthers:   domain.RiskNone,
			RiskFromOthers: domain.RiskNone,
			Urgency:        domain.UrgencyRoutine,
		},
		Consent: domain.ConsentDetails{
			PreferredTimes: []string{},
		},
		Notes:     []domain.Note{},
		CreatedAt: now.UTC().Format(time.RFC3339),
		UpdatedAt: now.UTC().Format(time.RFC3339),
	}

	for key, value := range answers {
		section, property, ok := strings.Cut(key, ".")
		if !ok {
			continue
		}
		switch section {
		case "client":
			applyClient(&c.Client, property, value)
		case "referral":
			applyReferral(&c.Referral, property, value)
		case "risk":
			applyRisk(&c.Risk, property, value)
		case "consent":
			applyConsent(&c.Consent, property, value)
		}
	}

	res := triage.Triage(c)
	c.TriageScore = res.Score
	c.Priority = res.Priority
	c.Flags = res.Flags
	if len(res.Flags) > 0 {
		c.Status = domain.StatusTriaged
	}
	return c
}

// Flatten inverts Build for edit flows: the case's intake-owned data back as
// schema-keyed answers. Lifecycle fields (status, notes, outcome) are not
// answers and do not appear.
func Flatten(c domain.Case) schema.Answers {
	a := schema.Answers{
		"client.full_name":               c.Client.FullName,
		"client.date_of_birth":           c.Client.DateOfBirth,
		"client.phone":                   c.Client.Phone,
		"client.email":                   c.Client.Email,
		"client.address":                 c.Client.Address,
		"client.postcode":                c.Client.Postcode,
		"client.preferred_contact":       c.Client.PreferredContact,
		"client.communication_needs":     c.Client.CommunicationNeeds,
		"client.gp_practice":             c.Client.GPPractice,
		"client.nhs_number":              c.Client.NHSNumber,
		"referral.source":                c.Referral.Source,
		"referral.referrer_name":         c.Referral.ReferrerName,
		"referral.referrer_organisation": c.Referral.ReferrerOrganisation,
		"referral.referrer_contact":      c.Referral.ReferrerContact,
		"referral.date_received":         c.Referral.DateReceived,
		"referral.reasons":               c.Referral.Reasons,
		"referral.support_requested":     c.Referral.SupportRequested,
		"risk.risk_to_self":              string(c.Risk.RiskToSelf),
		"risk.risk_to_others":            string(c.Risk.RiskToOthers),
		"risk.risk_from_others":          string(c.Risk.RiskFromOthers),
		"risk.children_in_household":     strconv.FormatBool(c.Risk.ChildrenInHousehold),
		"risk.safeguarding_concerns":     strconv.FormatBool(c.Risk.SafeguardingConcerns),
		"risk.safeguarding_details":      c.Risk.SafeguardingDetails,
		"risk.urgency":                   string(c.Risk.Urgency),
		"consent.share_information":      strconv.FormatBool(c.Consent.ShareInformation),
		"consent.contact_client":         strconv.FormatBool(c.Consent.ContactClient),
		"consent.preferred_times":        c.Consent.PreferredTimes,
		"consent.barriers_to_engagement": c.Consent.BarriersToEngagement,
	}
	if c.Risk.NumberOfChildren > 0 {
		a["risk.number_of_children"] = strconv.Itoa(c.Risk.NumberOfChildren)
	}
	return a
}

func applyClient(d *domain.ClientDetails, property string, value any) {
	switch property {
	case "full_name":
		d.FullName = str(value)
	case "date_of_birth":
		d.DateOfBirth = str(value)
	case "phone":
		d.Phone = str(value)
	case "email":
		d.Email = str(value)
	case "address":
		d.Address = str(value)
	case "postcode":
		d.Postcode = str(value)
	case "preferred_contact":
		if s := str(value); s != "" {
			d.PreferredContact = s
		}
	case "communication_needs":
		d.CommunicationNeeds = strs(value)
	case "gp_practice":
		d.GPPractice = str(value)
	case "nhs_number":
		d.NHSNumber = str(value)
	}
}

func applyReferral(d *domain.ReferralDetails, property string, value any) {
	switch property {
	case "source":
		if s := str(value); s != "" {
			d.Source = s
		}
	case "referrer_name":
		d.ReferrerName = str(value)
	case "referrer_organisation":
		d.ReferrerOrganisation = str(value)
	case "referrer_contact":
		d.ReferrerContact = str(value)
	case "date_received":
		d.DateReceived = str(value)
	case "reasons":
		d.Reasons = strs(value)
	case "support_requested":
		d.SupportRequested = str(value)
	}
}

func applyRisk(d *domain.RiskAssessment, property string, value any) {
	switch property {
	case "risk_to_self":
		if s := str(value); s != "" {
			d.RiskToSelf = domain.RiskLevel(s)
		}
	case "risk_to_others":
		if s := str(value); s != "" {
			d.RiskToOthers = domain.RiskLevel(s)
		}
	case "risk_from_others":
		if s := str(value); s != "" {
			d.RiskFromOthers = domain.RiskLevel(s)
		}
	case "children_in_household":
		d.ChildrenInHousehold = boolean(value)
	case "number_of_children":
		d.NumberOfChildren = integer(value)
	case "safeguarding_concerns":
		d.SafeguardingConcerns = boolean(value)
	case "safeguarding_details":
		d.SafeguardingDetails = str(value)
	case "urgency":
		if s := str(value); s != "" {
			d.Urgency = domain.UrgencyLevel(s)
		}
	}
}

func applyConsent(d *domain.ConsentDetails, property string, value any) {
	switch property {
	case "share_information":
		d.ShareInformation = boolean(value)
	case "contact_client":
		d.ContactClient = boolean(value)
	case "preferred_times":
		d.PreferredTimes = strs(value)
	case "barriers_to_engagement":
		d.BarriersToEngagement = str(value)
	}
}

func str(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	}
	return fmt.Sprint(value)
}

// boolean accepts both real booleans and the "true"/"false" strings that
// radio inputs produce.
func boolean(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func integer(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil {
			return n
		}
	}
	return 0
}

func strs(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, str(item))
		}
		return out
	}
	return []string{}
}
