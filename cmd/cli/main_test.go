package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   string
}

func newAPI(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()

	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, recordedRequest{
			method: r.Method,
			path:   r.URL.EscapedPath(),
			query:  r.URL.RawQuery,
			body:   string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	return srv, &seen
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--url", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const monthJSON = `{
  "month": "2024-04",
  "occurrences": [
    {"id": "virtual:tpl:2024-04", "virtual": true, "due_date": "2024-04-30", "template_id": "tpl",
     "obligation": {"id": "virtual:tpl:2024-04", "kind": "expense", "description": "Rent", "amount": "1200", "scheduled_date": "2024-04-30", "is_fixed": true, "settled": false}},
    {"id": "row-2", "virtual": false, "due_date": "2024-04-05", "installment": 2, "installments": 3,
     "obligation": {"id": "row-2", "kind": "expense", "description": "Laptop", "amount": "300", "scheduled_date": "2024-04-05", "settled": true, "settled_date": "2024-04-05"}}
  ],
  "summary": {"income": "0", "expense": "1500", "received": "0", "paid": "300", "net": "-1500", "occurrences": 2, "settled": 1, "virtual": 1}
}`

func TestOccurrencesCmdPrintsMonth(t *testing.T) {
	srv, seen := newAPI(t, http.StatusOK, monthJSON)

	out, err := run(t, srv, "occurrences", "--month", "2024-04")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if got := (*seen)[0]; got.path != "/api/v1/occurrences" || got.query != "month=2024-04" {
		t.Fatalf("unexpected request %+v", got)
	}
	for _, want := range []string{"Month 2024-04", "Rent", "projected", "Laptop (2/3)", "settled", "net -1500.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestOccurrencesCmdRejectsBadMonth(t *testing.T) {
	srv, seen := newAPI(t, http.StatusOK, monthJSON)

	if _, err := run(t, srv, "occurrences", "--month", "2024-13"); err == nil {
		t.Fatal("expected invalid month error")
	}
	if len(*seen) != 0 {
		t.Fatalf("expected no request, got %d", len(*seen))
	}
}

func TestSettleCmdSendsDate(t *testing.T) {
	srv, seen := newAPI(t, http.StatusCreated, `{"id": "row-9", "settled": true, "settled_date": "2024-04-30"}`)

	out, err := run(t, srv, "settle", "virtual:tpl:2024-04", "--date", "2024-04-30")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	got := (*seen)[0]
	if got.method != http.MethodPost || got.path != "/api/v1/occurrences/virtual:tpl:2024-04/settlement" {
		t.Fatalf("unexpected request %+v", got)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(got.body), &body); err != nil || body["settled_date"] != "2024-04-30" {
		t.Fatalf("unexpected body %q", got.body)
	}
	if !strings.Contains(out, "as row-9 on 2024-04-30") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSettleCmdWithoutDateSendsNoBody(t *testing.T) {
	srv, seen := newAPI(t, http.StatusOK, `{"id": "row-1", "settled": true, "settled_date": "2024-04-02"}`)

	if _, err := run(t, srv, "settle", "row-1"); err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if body := (*seen)[0].body; body != "" {
		t.Fatalf("expected empty body, got %q", body)
	}
}

func TestSettleCmdReportsConflict(t *testing.T) {
	srv, _ := newAPI(t, http.StatusConflict, `{"error": "failed to confirm settlement", "message": "occurrence already materialized"}`)

	_, err := run(t, srv, "settle", "virtual:tpl:2024-04")
	if err == nil || !strings.Contains(err.Error(), "status 409") || !strings.Contains(err.Error(), "already materialized") {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestUnsettleCmd(t *testing.T) {
	srv, seen := newAPI(t, http.StatusOK, `{"id": "row-1", "settled": false}`)

	out, err := run(t, srv, "unsettle", "row-1")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if got := (*seen)[0]; got.method != http.MethodDelete || got.path != "/api/v1/occurrences/row-1/settlement" {
		t.Fatalf("unexpected request %+v", got)
	}
	if strings.TrimSpace(out) != "unsettled row-1" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestObligationsListCmd(t *testing.T) {
	srv, _ := newAPI(t, http.StatusOK, `{"obligations": [{"id": "tpl", "kind": "expense", "description": "Rent", "amount": "1200", "scheduled_date": "2024-01-31", "is_fixed": true}], "total": 1}`)

	out, err := run(t, srv, "obligations", "list")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	for _, want := range []string{"SCHEDULED", "tpl", "2024-01-31", "1200.00", "true"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestJSONFlagPrintsRawResponse(t *testing.T) {
	srv, _ := newAPI(t, http.StatusOK, `{"obligations":[],"total":0}`)

	out, err := run(t, srv, "--json", "obligations", "list")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	expected := "{\n  \"obligations\": [],\n  \"total\": 0\n}\n"
	if out != expected {
		t.Fatalf("unexpected json output:\n%s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}
