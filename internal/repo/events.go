package repo

import (
	"context"
	"database/sql"
	"strings"

	"caseflow/internal/domain"
)

func (r Repo) LatestEvents(ctx context.Context, limit int, evtType, caseID string) ([]domain.Event, error) {
	return r.LatestEventsFrom(ctx, limit, 0, evtType, caseID)
}

func (r Repo) LatestEventsFrom(ctx context.Context, limit int, cursor int64, evtType, caseID string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if caseID != "" {
		clauses = append(clauses, "case_id=?")
		args = append(args, caseID)
	}
	if cursor > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, cursor)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := `SELECT id,ts,type,case_id,actor,payload_json FROM events ` + where + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var caseID sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &caseID, &e.Actor, &e.Payload); err != nil {
			return nil, err
		}
		e.CaseID = caseID.String
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the most recent event ID, 0 when the log is empty.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&id)
	return id, err
}
