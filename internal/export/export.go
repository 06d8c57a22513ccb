// Package export serializes cases for backup and spreadsheet handoff.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"caseflow/internal/domain"
)

// csvHeader is the stable column contract. Downstream spreadsheets key off
// these names, so the order never changes.
var csvHeader = []string{
	"ID", "Status", "Priority", "Triage Score", "Flags",
	"Client Name", "Date of Birth", "Phone", "Email", "Postcode",
	"Referral Source", "Date Received", "Reasons", "Support Requested",
	"Risk to Self", "Risk to Others", "Risk from Others",
	"Children in Household", "Safeguarding Concerns", "Urgency",
	"Assigned To", "Created At", "Updated At",
}

// JSON renders the full case list, notes and outcomes included, as an
// indented document suitable for re-import.
func JSON(cases []domain.Case) ([]byte, error) {
	if cases == nil {
		cases = []domain.Case{}
	}
	return json.MarshalIndent(cases, "", "  ")
}

// CSV renders the flat spreadsheet view. Booleans become Yes/No and list
// fields join with "; ".
func CSV(cases []domain.Case) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, c := range cases {
		row := []string{
			c.ID,
			string(c.Status),
			string(c.Priority),
			strconv.Itoa(c.TriageScore),
			strings.Join(c.Flags, "; "),
			c.Client.FullName,
			c.Client.DateOfBirth,
			c.Client.Phone,
			c.Client.Email,
			c.Client.Postcode,
			c.Referral.Source,
			c.Referral.DateReceived,
			strings.Join(c.Referral.Reasons, "; "),
			c.Referral.SupportRequested,
			string(c.Risk.RiskToSelf),
			string(c.Risk.RiskToOthers),
			string(c.Risk.RiskFromOthers),
			yesNo(c.Risk.ChildrenInHousehold),
			yesNo(c.Risk.SafeguardingConcerns),
			string(c.Risk.Urgency),
			c.AssignedTo,
			c.CreatedAt,
			c.UpdatedAt,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseJSON decodes a previously exported case list and rejects documents
// with structurally unusable entries before anything touches the store.
func ParseJSON(data []byte) ([]domain.Case, error) {
	var cases []domain.Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	for i, c := range cases {
		if c.ID == "" {
			return nil, fmt.Errorf("case at index %d has no id", i)
		}
	}
	return cases, nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
