package server

import (
	"caseflow/internal/domain"
	"caseflow/internal/repo"
	"caseflow/internal/schema"
)

// Request payloads

type SubmitIntakeRequest struct {
	Answers schema.Answers `json:"answers" jsonschema:"type=object,additionalProperties=true"`
	DraftID *string        `json:"draft_id,omitempty"`
}

type ValidateSectionRequest struct {
	Section string         `json:"section,omitempty"`
	Answers schema.Answers `json:"answers" jsonschema:"type=object,additionalProperties=true"`
}

type TriagePreviewRequest struct {
	Answers schema.Answers `json:"answers" jsonschema:"type=object,additionalProperties=true"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" enum:"new,triaged,assigned,in_progress"`
	Force  bool   `json:"force,omitempty"`
}

type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
	Force      bool   `json:"force,omitempty"`
}

type AddNoteRequest struct {
	Content string `json:"content"`
}

type CloseCaseRequest struct {
	Outcome string `json:"outcome" enum:"engaged,declined,referred_on,no_contact,not_eligible,other"`
	Details string `json:"details,omitempty"`
	Force   bool   `json:"force,omitempty"`
}

type ImportCasesRequest struct {
	Cases []domain.Case `json:"cases"`
}

type SaveDraftRequest struct {
	ID      *string        `json:"id,omitempty"`
	Section *string        `json:"section,omitempty"`
	Answers schema.Answers `json:"answers" jsonschema:"type=object,additionalProperties=true"`
}

// Response payloads

type CaseResponse struct {
	Case domain.Case `json:"case"`
}

type CaseListResponse struct {
	Cases []domain.Case `json:"cases"`
}

type ValidationResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

type TriagePreviewResponse struct {
	Score             int      `json:"score"`
	Priority          string   `json:"priority"`
	ResponseTimeframe string   `json:"response_timeframe"`
	Flags             []string `json:"flags"`
}

type SchemaSectionResponse struct {
	ID          string                `json:"id"`
	Title       string                `json:"title"`
	ShortTitle  string                `json:"short_title"`
	Description string                `json:"description,omitempty"`
	Fields      []SchemaFieldResponse `json:"fields"`
}

type SchemaFieldResponse struct {
	ID          string          `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Type        string          `json:"type"`
	Required    bool            `json:"required"`
	Conditional bool            `json:"conditional,omitempty"`
	Options     []schema.Option `json:"options,omitempty"`
}

type DraftResponse struct {
	Draft repo.Draft `json:"draft"`
}

type DraftListResponse struct {
	Drafts []repo.Draft `json:"drafts"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type ClearResponse struct {
	Deleted int `json:"deleted"`
}

type EventListResponse struct {
	Events []domain.Event `json:"events"`
}

func schemaSections(sections []schema.Section, fields []schema.Field) []SchemaSectionResponse {
	res := make([]SchemaSectionResponse, 0, len(sections))
	for _, s := range sections {
		sec := SchemaSectionResponse{
			ID:          s.ID,
			Title:       s.Title,
			ShortTitle:  s.ShortTitle,
			Description: s.Description,
		}
		for _, f := range schema.FieldsFor(s.ID, fields) {
			sec.Fields = append(sec.Fields, SchemaFieldResponse{
				ID:          f.ID,
				Label:       f.Label,
				Description: f.Description,
				Type:        string(f.Type),
				Required:    f.Required || f.RequiredWhen != nil,
				Conditional: f.VisibleWhen != nil,
				Options:     f.Options,
			})
		}
		res = append(res, sec)
	}
	return res
}
