package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"caseflow/internal/schema"
)

// Draft is a partially completed intake form, saved so staff can resume a
// submission later or after a crash.
type Draft struct {
	ID        string         `json:"id"`
	Answers   schema.Answers `json:"answers"`
	SectionID string         `json:"section_id,omitempty"`
	SavedAt   string         `json:"saved_at"`
}

func (r Repo) SaveDraft(ctx context.Context, d Draft) error {
	payload, err := json.Marshal(d.Answers)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO drafts(id,answers_json,section_id,saved_at) VALUES (?,?,?,?)
ON CONFLICT(id) DO UPDATE SET answers_json=excluded.answers_json, section_id=excluded.section_id, saved_at=excluded.saved_at`,
		d.ID, string(payload), d.SectionID, d.SavedAt)
	return err
}

func (r Repo) GetDraft(ctx context.Context, id string) (Draft, error) {
	var d Draft
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT id,answers_json,section_id,saved_at FROM drafts WHERE id=?`, id).
		Scan(&d.ID, &payload, &d.SectionID, &d.SavedAt)
	if err == sql.ErrNoRows {
		return d, ErrNotFound
	}
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal([]byte(payload), &d.Answers); err != nil {
		return d, err
	}
	return d, nil
}

func (r Repo) ListDrafts(ctx context.Context) ([]Draft, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,answers_json,section_id,saved_at FROM drafts ORDER BY saved_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Draft
	for rows.Next() {
		var d Draft
		var payload string
		if err := rows.Scan(&d.ID, &payload, &d.SectionID, &d.SavedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &d.Answers); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r Repo) DeleteDraft(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM drafts WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
