package schema

import "regexp"

// Sections returns the intake form steps in presentation order.
func Sections() []Section {
	return []Section{
		{
			ID:          "client",
			Title:       "Client Details",
			ShortTitle:  "Client",
			Description: "Basic information about the client being referred.",
		},
		{
			ID:          "referral",
			Title:       "Referral Information",
			ShortTitle:  "Referral",
			Description: "Details about how and why the referral was made.",
		},
		{
			ID:          "risk",
			Title:       "Risk Assessment",
			ShortTitle:  "Risk",
			Description: "Assessment of risks to help determine priority.",
		},
		{
			ID:          "consent",
			Title:       "Consent",
			ShortTitle:  "Consent",
			Description: "Client consent for information sharing and contact.",
		},
	}
}

var (
	ukPhonePattern    = regexp.MustCompile(`^(\+44|0)\d{9,10}$`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	ukPostcodePattern = regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}$`)
	nhsNumberPattern  = regexp.MustCompile(`^\d{10}$`)
)

// notSelfReferral holds when a referral source is chosen and it isn't "self".
func notSelfReferral(a Answers) bool {
	source, _ := a["referral.source"].(string)
	return source != "" && source != "self"
}

// Fields returns every intake field in declaration order. Field IDs are
// "<section>.<property>" and route straight into the case sub-records.
func Fields() []Field {
	riskLevelOptions := []Option{
		{Value: "none", Label: "None identified"},
		{Value: "low", Label: "Low"},
		{Value: "medium", Label: "Medium"},
		{Value: "high", Label: "High"},
	}
	yesNoOptions := []Option{
		{Value: "true", Label: "Yes"},
		{Value: "false", Label: "No"},
	}

	return []Field{
		// Step 1: client details.
		{
			ID: "client.full_name", Section: "client", Label: "Full name",
			Type: TypeText, Required: true,
			Validation: Constraints{MinLength: 2},
		},
		{
			ID: "client.date_of_birth", Section: "client", Label: "Date of birth",
			Type: TypeDate, Required: true,
		},
		{
			ID: "client.phone", Section: "client", Label: "Phone number",
			Type: TypeTel,
			Validation: Constraints{
				Pattern:        ukPhonePattern,
				PatternMessage: "Enter a valid UK phone number",
			},
		},
		{
			ID: "client.email", Section: "client", Label: "Email address",
			Type: TypeEmail,
			Validation: Constraints{
				Pattern:        emailPattern,
				PatternMessage: "Enter a valid email address",
			},
		},
		{
			ID: "client.address", Section: "client", Label: "Address",
			Type: TypeTextarea,
		},
		{
			ID: "client.postcode", Section: "client", Label: "Postcode",
			Type: TypeText,
			Validation: Constraints{
				Pattern:        ukPostcodePattern,
				PatternMessage: "Enter a valid UK postcode",
			},
		},
		{
			ID: "client.preferred_contact", Section: "client", Label: "Preferred contact method",
			Type: TypeSelect,
			Options: []Option{
				{Value: "phone", Label: "Phone"},
				{Value: "email", Label: "Email"},
				{Value: "text", Label: "Text message"},
				{Value: "letter", Label: "Letter"},
			},
		},
		{
			ID: "client.communication_needs", Section: "client", Label: "Communication needs",
			Description: "Select any that apply",
			Type:        TypeMultiselect,
			Options: []Option{
				{Value: "interpreter_required", Label: "Interpreter required"},
				{Value: "easy_read", Label: "Easy read format"},
				{Value: "large_print", Label: "Large print"},
				{Value: "bsl", Label: "British Sign Language"},
				{Value: "hearing_loop", Label: "Hearing loop"},
				{Value: "none", Label: "None"},
			},
		},
		{
			ID: "client.gp_practice", Section: "client", Label: "GP practice",
			Type: TypeText,
		},
		{
			ID: "client.nhs_number", Section: "client", Label: "NHS number",
			Type: TypeText,
			Validation: Constraints{
				Pattern:        nhsNumberPattern,
				PatternMessage: "Enter a 10-digit NHS number",
			},
		},

		// Step 2: referral information.
		{
			ID: "referral.source", Section: "referral", Label: "Referral source",
			Type: TypeSelect, Required: true,
			Options: []Option{
				{Value: "self", Label: "Self-referral"},
				{Value: "gp", Label: "GP"},
				{Value: "hospital", Label: "Hospital"},
				{Value: "social_services", Label: "Social services"},
				{Value: "police", Label: "Police"},
				{Value: "charity", Label: "Charity / voluntary organisation"},
				{Value: "family", Label: "Family member"},
				{Value: "other", Label: "Other"},
			},
		},
		{
			ID: "referral.referrer_name", Section: "referral", Label: "Referrer name",
			Type:         TypeText,
			RequiredWhen: notSelfReferral,
			VisibleWhen:  notSelfReferral,
		},
		{
			ID: "referral.referrer_organisation", Section: "referral", Label: "Referrer organisation",
			Type:         TypeText,
			RequiredWhen: notSelfReferral,
			VisibleWhen:  notSelfReferral,
		},
		{
			ID: "referral.referrer_contact", Section: "referral", Label: "Referrer contact details",
			Type:        TypeText,
			VisibleWhen: notSelfReferral,
		},
		{
			ID: "referral.date_received", Section: "referral", Label: "Date referral received",
			Type: TypeDate, Required: true,
		},
		{
			ID: "referral.reasons", Section: "referral", Label: "Reasons for referral",
			Description: "Select all that apply",
			Type:        TypeMultiselect, Required: true,
			Options: []Option{
				{Value: "mental_health", Label: "Mental health concerns"},
				{Value: "substance_misuse", Label: "Substance misuse"},
				{Value: "domestic_abuse", Label: "Domestic abuse"},
				{Value: "housing", Label: "Housing issues"},
				{Value: "financial", Label: "Financial difficulties"},
				{Value: "family_breakdown", Label: "Family breakdown"},
				{Value: "isolation", Label: "Social isolation"},
				{Value: "physical_health", Label: "Physical health"},
				{Value: "disability", Label: "Disability support"},
				{Value: "other", Label: "Other"},
			},
		},
		{
			ID: "referral.support_requested", Section: "referral", Label: "Support requested",
			Description: "Describe what support is being requested",
			Type:        TypeTextarea, Required: true,
			Validation: Constraints{MinLength: 10},
		},

		// Step 3: risk assessment.
		{
			ID: "risk.risk_to_self", Section: "risk", Label: "Risk to self",
			Description: "Including self-harm, suicidal ideation, self-neglect",
			Type:        TypeSelect, Required: true,
			Options: riskLevelOptions,
		},
		{
			ID: "risk.risk_to_others", Section: "risk", Label: "Risk to others",
			Description: "Including aggression, violence, exploitation",
			Type:        TypeSelect, Required: true,
			Options: riskLevelOptions,
		},
		{
			ID: "risk.risk_from_others", Section: "risk", Label: "Risk from others",
			Description: "Including abuse, exploitation, neglect",
			Type:        TypeSelect, Required: true,
			Options: riskLevelOptions,
		},
		{
			ID: "risk.children_in_household", Section: "risk", Label: "Are there children in the household?",
			Type: TypeRadio, Required: true,
			Options: yesNoOptions,
		},
		{
			ID: "risk.number_of_children", Section: "risk", Label: "Number of children",
			Type:       TypeNumber, Required: true,
			Validation: Constraints{Min: num(1), Max: num(20)},
			VisibleWhen: func(a Answers) bool {
				return a["risk.children_in_household"] == "true" || a["risk.children_in_household"] == true
			},
		},
		{
			ID: "risk.safeguarding_concerns", Section: "risk", Label: "Are there safeguarding concerns?",
			Type: TypeRadio, Required: true,
			Options: yesNoOptions,
		},
		{
			ID: "risk.safeguarding_details", Section: "risk", Label: "Safeguarding details",
			Description: "Describe the safeguarding concerns",
			Type:        TypeTextarea, Required: true,
			VisibleWhen: func(a Answers) bool {
				return a["risk.safeguarding_concerns"] == "true" || a["risk.safeguarding_concerns"] == true
			},
		},
		{
			ID: "risk.urgency", Section: "risk", Label: "Urgency",
			Description: "How quickly does this referral need to be actioned?",
			Type:        TypeSelect, Required: true,
			Options: []Option{
				{Value: "routine", Label: "Routine"},
				{Value: "soon", Label: "Soon (within a week)"},
				{Value: "urgent", Label: "Urgent (within 48 hours)"},
				{Value: "crisis", Label: "Crisis (immediate)"},
			},
		},

		// Step 4: consent.
		{
			ID:      "consent.share_information",
			Section: "consent",
			Label:   "The client consents to their information being shared with relevant services",
			Type:    TypeCheckbox, Required: true,
		},
		{
			ID:      "consent.contact_client",
			Section: "consent",
			Label:   "The client consents to being contacted by the service",
			Type:    TypeCheckbox, Required: true,
		},
		{
			ID: "consent.preferred_times", Section: "consent", Label: "Preferred contact times",
			Type: TypeMultiselect,
			Options: []Option{
				{Value: "morning", Label: "Morning (9am-12pm)"},
				{Value: "afternoon", Label: "Afternoon (12pm-5pm)"},
				{Value: "evening", Label: "Evening (5pm-8pm)"},
				{Value: "any", Label: "Any time"},
			},
		},
		{
			ID: "consent.barriers_to_engagement", Section: "consent", Label: "Barriers to engagement",
			Description: "Any factors that may make it difficult for the client to engage",
			Type:        TypeTextarea,
		},
	}
}
