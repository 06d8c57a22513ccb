package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"caseflow/internal/config"
	"caseflow/internal/db"
	"caseflow/internal/engine"
	"caseflow/internal/migrate"
)

const testJWTSecret = "test-secret"

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		t.Fatalf("ensure workspace: %v", err)
	}
	cfg := config.Default("tester")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, cfg)
	e.Now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	handler, err := New(Config{
		Engine:   e,
		BasePath: "/api",
		Auth: AuthConfig{
			JWTSecret:              testJWTSecret,
			AllowLegacyStaffHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func staffHeaders() map[string]string {
	return map[string]string{"X-Staff-Name": "alice"}
}

func validIntakeBody() map[string]any {
	return map[string]any{
		"answers": map[string]any{
			"client.full_name":           "Sam Patel",
			"client.date_of_birth":       "1990-05-15",
			"referral.source":            "self",
			"referral.date_received":     "2024-05-30",
			"referral.reasons":           []string{"housing"},
			"referral.support_requested": "Help finding stable housing",
			"risk.risk_to_self":          "none",
			"risk.risk_to_others":        "none",
			"risk.risk_from_others":      "none",
			"risk.children_in_household": "false",
			"risk.safeguarding_concerns": "false",
			"risk.urgency":               "routine",
			"consent.share_information":  "true",
			"consent.contact_client":     "true",
		},
	}
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func submitCase(t *testing.T, srv *testServer) string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/intake", validIntakeBody(), staffHeaders())
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("submit status %d: %s", res.StatusCode, data)
	}
	var body CaseResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal case: %v", err)
	}
	if body.Case.ID == "" {
		t.Fatalf("case = %+v", body.Case)
	}
	return body.Case.ID
}

func TestHealthNeedsNoAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, data)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/cases", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if env.Error.Code != "unauthorized" {
		t.Fatalf("code = %q", env.Error.Code)
	}
}

func TestJWTAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "bob",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/cases", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/cases", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status %d", res.StatusCode)
	}
}

func TestSubmitAndGetCase(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	id := submitCase(t, srv)

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/cases/"+id, nil, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get status %d: %s", res.StatusCode, data)
	}
	var body CaseResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if body.Case.Client.FullName != "Sam Patel" || string(body.Case.Status) != "new" {
		t.Fatalf("case = %+v", body.Case)
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/cases?status=new", nil, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, data)
	}
	var list CaseListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Cases) != 1 || list.Cases[0].ID != id {
		t.Fatalf("list = %+v", list.Cases)
	}
}

func TestSubmitValidationEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	body := validIntakeBody()
	answers := body["answers"].(map[string]any)
	delete(answers, "client.full_name")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/intake", body, staffHeaders())
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Error.Code != "validation_failed" {
		t.Fatalf("code = %q", env.Error.Code)
	}
	fields, ok := env.Error.Details["fields"].(map[string]any)
	if !ok {
		t.Fatalf("details = %v", env.Error.Details)
	}
	if fields["client.full_name"] != "Full name is required" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestStatusTransitionConflict(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	id := submitCase(t, srv)

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/cases/"+id+"/status", map[string]any{
		"status": "in_progress",
	}, staffHeaders())
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Error.Code != "invalid_transition" {
		t.Fatalf("code = %q", env.Error.Code)
	}
}

func TestAssignNoteCloseFlow(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	id := submitCase(t, srv)
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/cases/"+id+"/assign", map[string]any{
		"assigned_to": "bob",
	}, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("assign status %d: %s", res.StatusCode, data)
	}
	var body CaseResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if body.Case.AssignedTo != "bob" || string(body.Case.Status) != "assigned" {
		t.Fatalf("case = %+v", body.Case)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/cases/"+id+"/notes", map[string]any{
		"content": "left a voicemail",
	}, staffHeaders())
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("note status %d: %s", res.StatusCode, data)
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Case.Notes) != 1 || body.Case.Notes[0].CreatedBy != "alice" {
		t.Fatalf("notes = %+v", body.Case.Notes)
	}

	doJSON(t, client, http.MethodPost, srv.URL+"/api/cases/"+id+"/status", map[string]any{"status": "in_progress"}, staffHeaders())
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/cases/"+id+"/close", map[string]any{
		"outcome": "engaged",
		"details": "weekly support in place",
	}, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("close status %d: %s", res.StatusCode, data)
	}
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if string(body.Case.Status) != "closed" || body.Case.Outcome == nil {
		t.Fatalf("case = %+v", body.Case)
	}

	// closed is terminal through the API too
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/cases/"+id+"/assign", map[string]any{
		"assigned_to": "carol", "force": true,
	}, staffHeaders())
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("assign closed status %d: %s", res.StatusCode, data)
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Error.Code != "case_closed" {
		t.Fatalf("code = %q", env.Error.Code)
	}
}

func TestTriagePreview(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	body := validIntakeBody()
	answers := body["answers"].(map[string]any)
	answers["risk.risk_to_self"] = "medium"
	answers["risk.urgency"] = "soon"

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/intake/triage", body, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var preview TriagePreviewResponse
	if err := json.Unmarshal(data, &preview); err != nil {
		t.Fatal(err)
	}
	if preview.Score != 45 || preview.Priority != "high" || preview.ResponseTimeframe != "48 hours" {
		t.Fatalf("preview = %+v", preview)
	}

	// no case was created by the preview
	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/cases", nil, staffHeaders())
	var list CaseListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Cases) != 0 {
		t.Fatalf("preview created cases: %+v", list.Cases)
	}
}

func TestValidateSection(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/intake/validate", map[string]any{
		"section": "client",
		"answers": map[string]any{"client.full_name": ""},
	}, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var body ValidationResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if body.Valid {
		t.Fatal("expected invalid")
	}
	if body.Errors["client.full_name"] != "Full name is required" {
		t.Fatalf("errors = %v", body.Errors)
	}
	if _, ok := body.Errors["referral.source"]; ok {
		t.Fatal("section validation leaked into other sections")
	}
}

func TestExportFormats(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	submitCase(t, srv)

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/export?format=csv", nil, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("csv status %d: %s", res.StatusCode, data)
	}
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(string(data), "ID,Status,Priority") {
		t.Fatalf("csv = %q", data[:min(len(data), 60)])
	}

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/export", nil, staffHeaders())
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
	var cases []map[string]any
	if err := json.Unmarshal(data, &cases); err != nil {
		t.Fatalf("json export: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("exported %d cases", len(cases))
	}
}

func TestDraftEndpoints(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPut, srv.URL+"/api/drafts", map[string]any{
		"answers": map[string]any{"client.full_name": "Dra"},
		"section": "client",
	}, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("save status %d: %s", res.StatusCode, data)
	}
	var saved DraftResponse
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatal(err)
	}
	if saved.Draft.ID == "" {
		t.Fatalf("draft = %+v", saved.Draft)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/drafts/"+saved.Draft.ID, nil, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("get status %d: %s", res.StatusCode, data)
	}

	res, _ = doJSON(t, client, http.MethodDelete, srv.URL+"/api/drafts/"+saved.Draft.ID, nil, staffHeaders())
	if res.StatusCode != http.StatusNoContent && res.StatusCode != http.StatusOK {
		t.Fatalf("discard status %d", res.StatusCode)
	}
	res, _ = doJSON(t, client, http.MethodGet, srv.URL+"/api/drafts/"+saved.Draft.ID, nil, staffHeaders())
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status after discard %d", res.StatusCode)
	}
}

func TestEventsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	id := submitCase(t, srv)
	doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/cases/"+id+"/assign", map[string]any{"assigned_to": "bob"}, staffHeaders())

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/events?case_id="+id, nil, staffHeaders())
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", res.StatusCode, data)
	}
	var body EventListResponse
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Events) != 2 {
		t.Fatalf("events = %+v", body.Events)
	}
	// newest first
	if body.Events[0].Type != "case.assigned" || body.Events[1].Type != "case.created" {
		t.Fatalf("order = %s, %s", body.Events[0].Type, body.Events[1].Type)
	}
	if body.Events[0].Actor != "alice" {
		t.Fatalf("actor = %q", body.Events[0].Actor)
	}
}
