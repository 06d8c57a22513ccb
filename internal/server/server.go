package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"caseflow/internal/domain"
	"caseflow/internal/engine"
	"caseflow/internal/export"
	"caseflow/internal/intake"
	"caseflow/internal/repo"
	"caseflow/internal/schema"
	"caseflow/internal/triage"
	"caseflow/internal/validate"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"invalid_transition"`
	Message string         `json:"message" example:"invalid case status transition new -> closed"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the error envelope every endpoint returns.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the CaseFlow API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the shared envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyBytes, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyBytes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth))
	hcfg := huma.DefaultConfig("CaseFlow API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerStats(group, cfg.Engine)
	registerSchema(group)
	registerIntake(group, cfg.Engine)
	registerCases(group, cfg.Engine)
	registerTransfer(group, cfg.Engine)
	registerDrafts(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		fields := make(map[string]any, len(ve.Fields))
		for id, msg := range ve.Fields {
			fields[id] = msg
		}
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error(), map[string]any{"fields": fields})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "invalid case status transition"):
		return newAPIError(http.StatusConflict, "invalid_transition", msg, nil)
	case strings.Contains(lowered, "closed"):
		return newAPIError(http.StatusConflict, "case_closed", msg, nil)
	case strings.Contains(lowered, "invalid") || strings.Contains(lowered, "missing") || strings.Contains(lowered, "required"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	if b, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return b
	}
	return nil
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	security := []map[string][]string{{"bearerAuth": {}}}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>CaseFlow API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt;.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerStats(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "case-stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Caseload summary",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body engine.Stats `json:"body"`
	}, error) {
		stats, err := e.CaseStats(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body engine.Stats `json:"body"`
		}{Body: stats}, nil
	})
}

func registerSchema(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-schema",
		Method:      http.MethodGet,
		Path:        "/schema",
		Summary:     "Intake form schema",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []SchemaSectionResponse `json:"body"`
	}, error) {
		return &struct {
			Body []SchemaSectionResponse `json:"body"`
		}{Body: schemaSections(schema.Sections(), schema.Fields())}, nil
	})
}

func registerIntake(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "validate-intake",
		Method:      http.MethodPost,
		Path:        "/intake/validate",
		Summary:     "Validate intake answers",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body ValidateSectionRequest `json:"body"`
	}) (*struct {
		Body ValidationResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		now := e.Now()
		var errs validate.Errors
		if input.Body.Section != "" {
			errs = validate.Section(input.Body.Section, schema.Fields(), input.Body.Answers, now)
		} else {
			errs = validate.All(schema.Sections(), schema.Fields(), input.Body.Answers, now)
		}
		res := ValidationResponse{Valid: len(errs) == 0, Errors: map[string]string{}}
		for id, msg := range errs {
			res.Errors[id] = msg
		}
		return &struct {
			Body ValidationResponse `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "preview-triage",
		Method:      http.MethodPost,
		Path:        "/intake/triage",
		Summary:     "Preview triage outcome for answers",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body TriagePreviewRequest `json:"body"`
	}) (*struct {
		Body TriagePreviewResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		c := intake.Build(input.Body.Answers, "preview", e.Now())
		res := triage.Triage(c)
		return &struct {
			Body TriagePreviewResponse `json:"body"`
		}{Body: TriagePreviewResponse{
			Score:             res.Score,
			Priority:          string(res.Priority),
			ResponseTimeframe: triage.ResponseTimeframe(res.Priority),
			Flags:             res.Flags,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "submit-intake",
		Method:        http.MethodPost,
		Path:          "/intake",
		Summary:       "Submit an intake form",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body SubmitIntakeRequest `json:"body"`
	}) (*struct {
		Body CaseResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		draftID := ""
		if input.Body.DraftID != nil {
			draftID = *input.Body.DraftID
		}
		c, err := e.SubmitIntake(ctx, input.Body.Answers, draftID, staff)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CaseResponse `json:"body"`
		}{Body: CaseResponse{Case: c}}, nil
	})
}

func registerCases(api huma.API, e engine.Engine) {
	type casePath struct {
		CaseID string `path:"case_id"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "list-cases",
		Method:      http.MethodGet,
		Path:        "/cases",
		Summary:     "List cases",
	}, func(ctx context.Context, input *struct {
		Status     string `query:"status" enum:"new,triaged,assigned,in_progress,closed"`
		Priority   string `query:"priority" enum:"low,medium,high,urgent"`
		AssignedTo string `query:"assigned_to"`
		Search     string `query:"search"`
		Limit      int    `query:"limit"`
	}) (*struct {
		Body CaseListResponse `json:"body"`
	}, error) {
		cases, err := e.ListCases(ctx, repo.CaseFilters{
			Status:     input.Status,
			Priority:   input.Priority,
			AssignedTo: input.AssignedTo,
			Search:     input.Search,
			Limit:      input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		if cases == nil {
			cases = []domain.Case{}
		}
		return &struct {
			Body CaseListResponse `json:"body"`
		}{Body: CaseListResponse{Cases: cases}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-case",
		Method:      http.MethodGet,
		Path:        "/cases/{case_id}",
		Summary:     "Get case",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *casePath) (*struct {
		Body CaseResponse `json:"body"`
	}, error) {
		c, err := e.GetCase(ctx, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CaseResponse `json:"body"`
		}{Body: CaseResponse{Case: c}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-case-status",
		Method:      http.MethodPost,
		Path:        "/cases/{case_id}/status",
		Summary:     "Update case status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		CaseID string              `path:"case_id"`
		Body   UpdateStatusRequest `json:"body"`
	}) (*struct {
		Body CaseResponse `json:"body"`
	}, error) {
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.UpdateStatus(ctx, input.CaseID, domain.CaseStatus(input.Body.Status), staff, input.Body.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CaseResponse `json:"body"`
		}{Body: CaseResponse{Case: c}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-case",
		Method:      http.MethodPost,
		Path:        "/cases/{case_id}/assign",
		Summary:     "Assign case to a staff member",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		CaseID string        `path:"case_id"`
		Body   AssignRequest `json:"body"`
	}) (*struct {
		Body CaseResponse `json:"body"`
	}, error) {
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.Assign(ctx, input.CaseID, input.Body.AssignedTo, staff, input.Body.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CaseResponse `json:"body"`
		}{Body: CaseResponse{Case: c}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-case-note",
		Method:        http.MethodPost,
		Path:          "/cases/{case_id}/notes",
		Summary:       "Add a note to a case",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		CaseID string         `path:"case_id"`
		Body   AddNoteRequest `json:"body"`
	}) (*struct {
		Body CaseResponse `json:"body"`
	}, error) {
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.AddNote(ctx, input.CaseID, input.Body.Content, staff)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CaseResponse `json:"body"`
		}{Body: CaseResponse{Case: c}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "close-case",
		Method:      http.MethodPost,
		Path:        "/cases/{case_id}/close",
		Summary:     "Close a case with an outcome",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		CaseID string           `path:"case_id"`
		Body   CloseCaseRequest `json:"body"`
	}) (*struct {
		Body CaseResponse `json:"body"`
	}, error) {
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.CloseCase(ctx, input.CaseID, domain.CaseOutcome{
			Type:    domain.OutcomeType(input.Body.Outcome),
			Details: input.Body.Details,
		}, staff, input.Body.Force)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body CaseResponse `json:"body"`
		}{Body: CaseResponse{Case: c}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-case",
		Method:      http.MethodDelete,
		Path:        "/cases/{case_id}",
		Summary:     "Delete case",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *casePath) (*struct{}, error) {
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteCase(ctx, input.CaseID, staff); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-cases",
		Method:      http.MethodDelete,
		Path:        "/cases",
		Summary:     "Delete every case and draft",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ClearResponse `json:"body"`
	}, error) {
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := e.ClearAll(ctx, staff)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ClearResponse `json:"body"`
		}{Body: ClearResponse{Deleted: n}}, nil
	})
}

func registerTransfer(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "export-cases",
		Method:      http.MethodGet,
		Path:        "/export",
		Summary:     "Export cases as JSON or CSV",
	}, func(ctx context.Context, input *struct {
		Format string `query:"format" enum:"json,csv"`
	}) (*huma.StreamResponse, error) {
		cases, err := e.ListCases(ctx, repo.CaseFilters{})
		if err != nil {
			return nil, handleError(err)
		}
		format := input.Format
		if format == "" {
			format = "json"
		}
		var data []byte
		contentType := "application/json"
		if format == "csv" {
			data, err = export.CSV(cases)
			contentType = "text/csv"
		} else {
			data, err = export.JSON(cases)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &huma.StreamResponse{
			Body: func(ctx huma.Context) {
				ctx.SetHeader("Content-Type", contentType)
				ctx.BodyWriter().Write(data)
			},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "import-cases",
		Method:      http.MethodPost,
		Path:        "/import",
		Summary:     "Import previously exported cases",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body ImportCasesRequest `json:"body"`
	}) (*struct {
		Body ImportResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		n, err := e.ImportCases(ctx, input.Body.Cases, staff)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ImportResponse `json:"body"`
		}{Body: ImportResponse{Imported: n}}, nil
	})
}

func registerDrafts(api huma.API, e engine.Engine) {
	type draftPath struct {
		DraftID string `path:"draft_id"`
	}

	huma.Register(api, huma.Operation{
		OperationID: "save-draft",
		Method:      http.MethodPut,
		Path:        "/drafts",
		Summary:     "Save an intake draft",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body SaveDraftRequest `json:"body"`
	}) (*struct {
		Body DraftResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		staff, authErr := staffFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		id := ""
		if input.Body.ID != nil {
			id = *input.Body.ID
		}
		section := ""
		if input.Body.Section != nil {
			section = *input.Body.Section
		}
		d, err := e.SaveDraft(ctx, id, section, input.Body.Answers, staff)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DraftResponse `json:"body"`
		}{Body: DraftResponse{Draft: d}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-drafts",
		Method:      http.MethodGet,
		Path:        "/drafts",
		Summary:     "List intake drafts",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body DraftListResponse `json:"body"`
	}, error) {
		drafts, err := e.ListDrafts(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if drafts == nil {
			drafts = []repo.Draft{}
		}
		return &struct {
			Body DraftListResponse `json:"body"`
		}{Body: DraftListResponse{Drafts: drafts}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-draft",
		Method:      http.MethodGet,
		Path:        "/drafts/{draft_id}",
		Summary:     "Get intake draft",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *draftPath) (*struct {
		Body DraftResponse `json:"body"`
	}, error) {
		d, err := e.GetDraft(ctx, input.DraftID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body DraftResponse `json:"body"`
		}{Body: DraftResponse{Draft: d}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-draft",
		Method:      http.MethodDelete,
		Path:        "/drafts/{draft_id}",
		Summary:     "Discard intake draft",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *draftPath) (*struct{}, error) {
		if err := e.DiscardDraft(ctx, input.DraftID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Audit log",
	}, func(ctx context.Context, input *struct {
		Limit  int    `query:"limit"`
		Type   string `query:"type"`
		CaseID string `query:"case_id"`
		Cursor int64  `query:"cursor"`
	}) (*struct {
		Body EventListResponse `json:"body"`
	}, error) {
		limit := input.Limit
		if limit <= 0 {
			limit = 50
		}
		items, err := e.Repo.LatestEventsFrom(ctx, limit, input.Cursor, input.Type, input.CaseID)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Event{}
		}
		return &struct {
			Body EventListResponse `json:"body"`
		}{Body: EventListResponse{Events: items}}, nil
	})
}
