package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"caseflow/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const caseColumns = `id,status,priority,triage_score,flags_json,
client_full_name,client_date_of_birth,client_phone,client_email,client_address,client_postcode,client_preferred_contact,client_communication_needs_json,client_gp_practice,client_nhs_number,
referral_source,referral_referrer_name,referral_referrer_organisation,referral_referrer_contact,referral_date_received,referral_reasons_json,referral_support_requested,
risk_to_self,risk_to_others,risk_from_others,risk_children_in_household,risk_number_of_children,risk_safeguarding_concerns,risk_safeguarding_details,risk_urgency,
consent_share_information,consent_contact_client,consent_preferred_times_json,consent_barriers,
assigned_to,outcome_type,outcome_details,outcome_closed_date,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (domain.Case, error) {
	var c domain.Case
	var flagsJSON, needsJSON, reasonsJSON, timesJSON string
	var dob, phone, email, address, postcode, gp, nhs sql.NullString
	var refName, refOrg, refContact, refDate, refSupport sql.NullString
	var safeguardingDetails, barriers, assignedTo sql.NullString
	var outcomeType, outcomeDetails, outcomeClosed sql.NullString
	err := row.Scan(
		&c.ID, &c.Status, &c.Priority, &c.TriageScore, &flagsJSON,
		&c.Client.FullName, &dob, &phone, &email, &address, &postcode, &c.Client.PreferredContact, &needsJSON, &gp, &nhs,
		&c.Referral.Source, &refName, &refOrg, &refContact, &refDate, &reasonsJSON, &refSupport,
		&c.Risk.RiskToSelf, &c.Risk.RiskToOthers, &c.Risk.RiskFromOthers, &c.Risk.ChildrenInHousehold, &c.Risk.NumberOfChildren, &c.Risk.SafeguardingConcerns, &safeguardingDetails, &c.Risk.Urgency,
		&c.Consent.ShareInformation, &c.Consent.ContactClient, &timesJSON, &barriers,
		&assignedTo, &outcomeType, &outcomeDetails, &outcomeClosed, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if err := decodeStrings(flagsJSON, &c.Flags); err != nil {
		return c, fmt.Errorf("case %s flags: %w", c.ID, err)
	}
	if err := decodeStrings(needsJSON, &c.Client.CommunicationNeeds); err != nil {
		return c, fmt.Errorf("case %s communication needs: %w", c.ID, err)
	}
	if err := decodeStrings(reasonsJSON, &c.Referral.Reasons); err != nil {
		return c, fmt.Errorf("case %s referral reasons: %w", c.ID, err)
	}
	if err := decodeStrings(timesJSON, &c.Consent.PreferredTimes); err != nil {
		return c, fmt.Errorf("case %s preferred times: %w", c.ID, err)
	}
	c.Client.DateOfBirth = dob.String
	c.Client.Phone = phone.String
	c.Client.Email = email.String
	c.Client.Address = address.String
	c.Client.Postcode = postcode.String
	c.Client.GPPractice = gp.String
	c.Client.NHSNumber = nhs.String
	c.Referral.ReferrerName = refName.String
	c.Referral.ReferrerOrganisation = refOrg.String
	c.Referral.ReferrerContact = refContact.String
	c.Referral.DateReceived = refDate.String
	c.Referral.SupportRequested = refSupport.String
	c.Risk.SafeguardingDetails = safeguardingDetails.String
	c.Consent.BarriersToEngagement = barriers.String
	c.AssignedTo = assignedTo.String
	if outcomeType.Valid {
		c.Outcome = &domain.CaseOutcome{
			Type:       domain.OutcomeType(outcomeType.String),
			Details:    outcomeDetails.String,
			ClosedDate: outcomeClosed.String,
		}
	}
	c.Notes = []domain.Note{}
	return c, nil
}

func decodeStrings(payload string, dst *[]string) error {
	if payload == "" {
		*dst = []string{}
		return nil
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []string{}
	}
	return nil
}

func encodeStrings(v []string) string {
	if v == nil {
		v = []string{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func caseArgs(c domain.Case) []any {
	var outcomeType, outcomeDetails, outcomeClosed any
	if c.Outcome != nil {
		outcomeType = string(c.Outcome.Type)
		outcomeDetails = nullable(c.Outcome.Details)
		outcomeClosed = nullable(c.Outcome.ClosedDate)
	}
	return []any{
		c.Status, c.Priority, c.TriageScore, encodeStrings(c.Flags),
		c.Client.FullName, nullable(c.Client.DateOfBirth), nullable(c.Client.Phone), nullable(c.Client.Email),
		nullable(c.Client.Address), nullable(c.Client.Postcode), c.Client.PreferredContact,
		encodeStrings(c.Client.CommunicationNeeds), nullable(c.Client.GPPractice), nullable(c.Client.NHSNumber),
		c.Referral.Source, nullable(c.Referral.ReferrerName), nullable(c.Referral.ReferrerOrganisation),
		nullable(c.Referral.ReferrerContact), nullable(c.Referral.DateReceived), encodeStrings(c.Referral.Reasons),
		nullable(c.Referral.SupportRequested),
		c.Risk.RiskToSelf, c.Risk.RiskToOthers, c.Risk.RiskFromOthers, c.Risk.ChildrenInHousehold,
		c.Risk.NumberOfChildren, c.Risk.SafeguardingConcerns, nullable(c.Risk.SafeguardingDetails), c.Risk.Urgency,
		c.Consent.ShareInformation, c.Consent.ContactClient, encodeStrings(c.Consent.PreferredTimes),
		nullable(c.Consent.BarriersToEngagement),
		nullable(c.AssignedTo), outcomeType, outcomeDetails, outcomeClosed,
		c.CreatedAt, c.UpdatedAt,
	}
}

func (r Repo) InsertCase(ctx context.Context, tx *sql.Tx, c domain.Case) error {
	args := append([]any{c.ID}, caseArgs(c)...)
	_, err := tx.ExecContext(ctx, `INSERT INTO cases(`+caseColumns+`) VALUES (`+placeholders(len(args))+`)`, args...)
	return err
}

func (r Repo) UpdateCase(ctx context.Context, tx *sql.Tx, c domain.Case) error {
	sets := []string{
		"status=?", "priority=?", "triage_score=?", "flags_json=?",
		"client_full_name=?", "client_date_of_birth=?", "client_phone=?", "client_email=?",
		"client_address=?", "client_postcode=?", "client_preferred_contact=?",
		"client_communication_needs_json=?", "client_gp_practice=?", "client_nhs_number=?",
		"referral_source=?", "referral_referrer_name=?", "referral_referrer_organisation=?",
		"referral_referrer_contact=?", "referral_date_received=?", "referral_reasons_json=?",
		"referral_support_requested=?",
		"risk_to_self=?", "risk_to_others=?", "risk_from_others=?", "risk_children_in_household=?",
		"risk_number_of_children=?", "risk_safeguarding_concerns=?", "risk_safeguarding_details=?", "risk_urgency=?",
		"consent_share_information=?", "consent_contact_client=?", "consent_preferred_times_json=?",
		"consent_barriers=?",
		"assigned_to=?", "outcome_type=?", "outcome_details=?", "outcome_closed_date=?",
		"created_at=?", "updated_at=?",
	}
	args := append(caseArgs(c), c.ID)
	res, err := tx.ExecContext(ctx, `UPDATE cases SET `+strings.Join(sets, ", ")+` WHERE id=?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) GetCase(ctx context.Context, id string) (domain.Case, error) {
	c, err := scanCase(r.DB.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=?`, id))
	if err != nil {
		return c, err
	}
	notes, err := r.ListNotes(ctx, id)
	if err != nil {
		return c, err
	}
	c.Notes = notes
	return c, nil
}

func (r Repo) GetCaseTx(ctx context.Context, tx *sql.Tx, id string) (domain.Case, error) {
	c, err := scanCase(tx.QueryRowContext(ctx, `SELECT `+caseColumns+` FROM cases WHERE id=?`, id))
	if err != nil {
		return c, err
	}
	notes, err := listNotes(ctx, tx, id)
	if err != nil {
		return c, err
	}
	c.Notes = notes
	return c, nil
}

type CaseFilters struct {
	Status          string
	Priority        string
	AssignedTo      string
	Search          string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListCases(ctx context.Context, f CaseFilters) ([]domain.Case, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority=?")
		args = append(args, f.Priority)
	}
	if f.AssignedTo != "" {
		clauses = append(clauses, "assigned_to=?")
		args = append(args, f.AssignedTo)
	}
	if f.Search != "" {
		clauses = append(clauses, "(client_full_name LIKE ? OR id LIKE ? OR client_postcode LIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + caseColumns + ` FROM cases ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range res {
		notes, err := r.ListNotes(ctx, res[i].ID)
		if err != nil {
			return nil, err
		}
		res[i].Notes = notes
	}
	return res, nil
}

func (r Repo) DeleteCase(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM cases WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearAll wipes cases, their notes and saved drafts. The event log stays.
func (r Repo) ClearAll(ctx context.Context, tx *sql.Tx) (int, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM cases`)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	if _, err := tx.ExecContext(ctx, `DELETE FROM drafts`); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r Repo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, count(*) FROM cases GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		res[status] = count
	}
	return res, rows.Err()
}

func (r Repo) CountByPriority(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT priority, count(*) FROM cases GROUP BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := map[string]int{}
	for rows.Next() {
		var priority string
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			return nil, err
		}
		res[priority] = count
	}
	return res, rows.Err()
}

func (r Repo) InsertNote(ctx context.Context, tx *sql.Tx, caseID string, n domain.Note) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO notes(id,case_id,content,created_at,created_by) VALUES (?,?,?,?,?)`,
		n.ID, caseID, n.Content, n.CreatedAt, n.CreatedBy)
	return err
}

func (r Repo) ListNotes(ctx context.Context, caseID string) ([]domain.Note, error) {
	return listNotes(ctx, r.DB, caseID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listNotes(ctx context.Context, q querier, caseID string) ([]domain.Note, error) {
	rows, err := q.QueryContext(ctx, `SELECT id,content,created_at,created_by FROM notes WHERE case_id=? ORDER BY created_at ASC, id ASC`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notes := []domain.Note{}
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.Content, &n.CreatedAt, &n.CreatedBy); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}
	return strings.Join(marks, ",")
}
