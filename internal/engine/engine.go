package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"caseflow/internal/config"
	"caseflow/internal/domain"
	"caseflow/internal/events"
	"caseflow/internal/intake"
	"caseflow/internal/repo"
	"caseflow/internal/schema"
	"caseflow/internal/validate"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) rfc3339Now() string {
	return e.now().UTC().Format(time.RFC3339)
}

// ValidationError carries the per-field messages of a rejected submission.
type ValidationError struct {
	Fields validate.Errors
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("intake has %d invalid fields", len(v.Fields))
}

// SubmitIntake validates the whole form, builds a triaged case from the
// answers and persists it. The draft with the given id, if any, is consumed.
func (e Engine) SubmitIntake(ctx context.Context, answers schema.Answers, draftID, actor string) (domain.Case, error) {
	now := e.now()
	if errs := validate.All(schema.Sections(), schema.Fields(), answers, now); len(errs) > 0 {
		return domain.Case{}, &ValidationError{Fields: errs}
	}

	id := uuid.NewString()
	c := intake.Build(answers, id, now)

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertCase(ctx, tx, c); err != nil {
		return domain.Case{}, fmt.Errorf("insert case: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "case.created", c.ID, actor, events.EventPayload{
		"status":       string(c.Status),
		"priority":     string(c.Priority),
		"triage_score": c.TriageScore,
		"flags":        c.Flags,
	}); err != nil {
		return domain.Case{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Case{}, err
	}

	if draftID != "" {
		if err := e.Repo.DeleteDraft(ctx, draftID); err != nil && !errors.Is(err, repo.ErrNotFound) {
			return c, err
		}
	}
	return c, nil
}

// UpdateStatus moves a case along the lifecycle graph. Closing goes through
// CloseCase so an outcome is always recorded; this method rejects the closed
// target outright.
func (e Engine) UpdateStatus(ctx context.Context, id string, status domain.CaseStatus, actor string, force bool) (domain.Case, error) {
	if status == domain.StatusClosed {
		return domain.Case{}, errors.New("invalid status target: close the case with an outcome instead")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, err
	}
	defer tx.Rollback()

	c, err := e.Repo.GetCaseTx(ctx, tx, id)
	if err != nil {
		return c, err
	}
	if err := ensureCaseTransition(c.Status, status, force); err != nil {
		return c, err
	}
	old := c.Status
	c.Status = status
	c.UpdatedAt = e.rfc3339Now()
	if err := e.Repo.UpdateCase(ctx, tx, c); err != nil {
		return c, err
	}
	if err := e.Events.Append(ctx, tx, "case.status.changed", c.ID, actor, events.EventPayload{
		"old_status": string(old),
		"new_status": string(status),
		"forced":     force,
	}); err != nil {
		return c, err
	}
	return c, tx.Commit()
}

// Assign puts a case in a staff member's hands. From new or triaged this is
// a transition to assigned; an already assigned or in-progress case keeps
// its status and only the assignee changes.
func (e Engine) Assign(ctx context.Context, id, assignee, actor string, force bool) (domain.Case, error) {
	if assignee == "" {
		return domain.Case{}, errors.New("assignee is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, err
	}
	defer tx.Rollback()

	c, err := e.Repo.GetCaseTx(ctx, tx, id)
	if err != nil {
		return c, err
	}
	old := c.Status
	switch c.Status {
	case domain.StatusNew, domain.StatusTriaged:
		if err := ensureCaseTransition(c.Status, domain.StatusAssigned, force); err != nil {
			return c, err
		}
		c.Status = domain.StatusAssigned
	case domain.StatusAssigned, domain.StatusInProgress:
		// reassignment only
	case domain.StatusClosed:
		return c, fmt.Errorf("case is closed; closed cases cannot be assigned")
	}
	previous := c.AssignedTo
	c.AssignedTo = assignee
	c.UpdatedAt = e.rfc3339Now()
	if err := e.Repo.UpdateCase(ctx, tx, c); err != nil {
		return c, err
	}
	payload := events.EventPayload{"assignee": assignee}
	if previous != "" && previous != assignee {
		payload["previous_assignee"] = previous
	}
	if old != c.Status {
		payload["old_status"] = string(old)
		payload["new_status"] = string(c.Status)
	}
	if err := e.Events.Append(ctx, tx, "case.assigned", c.ID, actor, payload); err != nil {
		return c, err
	}
	return c, tx.Commit()
}

// AddNote appends a note. Notes stay writable in every status, closed
// included, so the record of contact attempts is never cut short.
func (e Engine) AddNote(ctx context.Context, id, content, actor string) (domain.Case, error) {
	if content == "" {
		return domain.Case{}, errors.New("note content is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, err
	}
	defer tx.Rollback()

	c, err := e.Repo.GetCaseTx(ctx, tx, id)
	if err != nil {
		return c, err
	}
	n := domain.Note{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: e.rfc3339Now(),
		CreatedBy: actor,
	}
	if err := e.Repo.InsertNote(ctx, tx, c.ID, n); err != nil {
		return c, err
	}
	c.Notes = append(c.Notes, n)
	c.UpdatedAt = n.CreatedAt
	if err := e.Repo.UpdateCase(ctx, tx, c); err != nil {
		return c, err
	}
	if err := e.Events.Append(ctx, tx, "case.note.added", c.ID, actor, events.EventPayload{
		"note_id": n.ID,
	}); err != nil {
		return c, err
	}
	return c, tx.Commit()
}

// CloseCase records the outcome and moves the case to closed. Normally only
// an in-progress case can close; force allows closing from earlier statuses
// when a referral is withdrawn before work starts.
func (e Engine) CloseCase(ctx context.Context, id string, outcome domain.CaseOutcome, actor string, force bool) (domain.Case, error) {
	if outcome.Type == "" {
		return domain.Case{}, errors.New("outcome type is required")
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Case{}, err
	}
	defer tx.Rollback()

	c, err := e.Repo.GetCaseTx(ctx, tx, id)
	if err != nil {
		return c, err
	}
	if err := ensureCaseTransition(c.Status, domain.StatusClosed, force); err != nil {
		return c, err
	}
	old := c.Status
	outcome.ClosedDate = e.rfc3339Now()
	c.Status = domain.StatusClosed
	c.Outcome = &outcome
	c.UpdatedAt = outcome.ClosedDate
	if err := e.Repo.UpdateCase(ctx, tx, c); err != nil {
		return c, err
	}
	if err := e.Events.Append(ctx, tx, "case.closed", c.ID, actor, events.EventPayload{
		"old_status":   string(old),
		"outcome_type": string(outcome.Type),
		"forced":       force,
	}); err != nil {
		return c, err
	}
	return c, tx.Commit()
}

// DeleteCase removes a case and its notes permanently.
func (e Engine) DeleteCase(ctx context.Context, id, actor string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := e.Repo.DeleteCase(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, "case.deleted", id, actor, nil); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearAll wipes every case and draft from the workspace.
func (e Engine) ClearAll(ctx context.Context, actor string) (int, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n, err := e.Repo.ClearAll(ctx, tx)
	if err != nil {
		return 0, err
	}
	if err := e.Events.Append(ctx, tx, "cases.cleared", "", actor, events.EventPayload{
		"deleted": n,
	}); err != nil {
		return 0, err
	}
	return n, tx.Commit()
}

// ImportCases inserts a batch of previously exported cases. The whole batch
// goes in one transaction: a duplicate or malformed case aborts the import
// and leaves the store untouched.
func (e Engine) ImportCases(ctx context.Context, cases []domain.Case, actor string) (int, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, c := range cases {
		if c.ID == "" {
			return 0, errors.New("imported case is missing an id")
		}
		if c.Status == "" {
			return 0, fmt.Errorf("imported case %s is missing a status", c.ID)
		}
		if err := e.Repo.InsertCase(ctx, tx, c); err != nil {
			return 0, fmt.Errorf("import case %s: %w", c.ID, err)
		}
		for _, n := range c.Notes {
			if err := e.Repo.InsertNote(ctx, tx, c.ID, n); err != nil {
				return 0, fmt.Errorf("import case %s note: %w", c.ID, err)
			}
		}
	}
	if err := e.Events.Append(ctx, tx, "cases.imported", "", actor, events.EventPayload{
		"count": len(cases),
	}); err != nil {
		return 0, err
	}
	return len(cases), tx.Commit()
}

func (e Engine) GetCase(ctx context.Context, id string) (domain.Case, error) {
	return e.Repo.GetCase(ctx, id)
}

func (e Engine) ListCases(ctx context.Context, f repo.CaseFilters) ([]domain.Case, error) {
	return e.Repo.ListCases(ctx, f)
}

// Stats summarizes the caseload for dashboards and the CLI status view.
type Stats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

func (e Engine) CaseStats(ctx context.Context) (Stats, error) {
	byStatus, err := e.Repo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	byPriority, err := e.Repo.CountByPriority(ctx)
	if err != nil {
		return Stats{}, err
	}
	total := 0
	for _, n := range byStatus {
		total += n
	}
	return Stats{Total: total, ByStatus: byStatus, ByPriority: byPriority}, nil
}

// SaveDraft stores partially completed answers under the given id, creating
// a fresh id when none is supplied.
func (e Engine) SaveDraft(ctx context.Context, id, sectionID string, answers schema.Answers, actor string) (repo.Draft, error) {
	if id == "" {
		id = uuid.NewString()
	}
	d := repo.Draft{
		ID:        id,
		Answers:   answers,
		SectionID: sectionID,
		SavedAt:   e.rfc3339Now(),
	}
	if err := e.Repo.SaveDraft(ctx, d); err != nil {
		return d, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return d, err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, "draft.saved", "", actor, events.EventPayload{
		"draft_id": d.ID,
	}); err != nil {
		return d, err
	}
	return d, tx.Commit()
}

func (e Engine) GetDraft(ctx context.Context, id string) (repo.Draft, error) {
	return e.Repo.GetDraft(ctx, id)
}

func (e Engine) ListDrafts(ctx context.Context) ([]repo.Draft, error) {
	return e.Repo.ListDrafts(ctx)
}

func (e Engine) DiscardDraft(ctx context.Context, id string) error {
	return e.Repo.DeleteDraft(ctx, id)
}
