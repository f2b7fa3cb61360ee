package profileapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusdesk/student-portal/internal/config"
	"github.com/campusdesk/student-portal/internal/domain"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var seen []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		seen = append(seen, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.ProfileAPIConfig{BaseURL: baseURL + "/api/", TimeoutSeconds: 2})
}

func TestFetch(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusOK, `{"data":{"name":"Ann","studentID":"S1","cgpa":8.5}}`)
	client := newTestClient(srv.URL)

	ctx := WithToken(context.Background(), "tok")
	record, err := client.Fetch(ctx, "u1")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if record["name"] != "Ann" || record["studentID"] != "S1" {
		t.Fatalf("unexpected record %v", record)
	}

	got := (*seen)[0]
	if got.method != http.MethodGet || got.path != "/api/students/u1/profile" {
		t.Fatalf("unexpected request %s %s", got.method, got.path)
	}
	if got.auth != "Bearer tok" {
		t.Fatalf("token not forwarded: %q", got.auth)
	}
}

func TestCreateAndUpdateSendPayload(t *testing.T) {
	srv, seen := newTestServer(t, http.StatusCreated, `{"studentID":"S1"}`)
	client := newTestClient(srv.URL)

	payload := domain.NewSubmission(domain.Profile{Name: "Ann", StudentID: "S1"}, 2025, "active")
	if _, err := client.Create(context.Background(), "u1", payload); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := client.Update(context.Background(), "u1", payload); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if len(*seen) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(*seen))
	}
	create, update := (*seen)[0], (*seen)[1]
	if create.method != http.MethodPost || update.method != http.MethodPut {
		t.Fatalf("unexpected methods %s, %s", create.method, update.method)
	}
	if create.body["batch"] != float64(2025) || create.body["status"] != "active" || create.body["studentID"] != "S1" {
		t.Fatalf("unexpected payload %v", create.body)
	}
	if create.auth != "" {
		t.Fatalf("unexpected authorization header %q", create.auth)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"message":"Profile not found"}`, wantKind: KindNotFound, wantMsg: "Profile not found"},
		{name: "conflict status", status: http.StatusConflict, body: `{"error":{"message":"duplicate"}}`, wantKind: KindConflict, wantMsg: "duplicate"},
		{name: "conflict by message", status: http.StatusBadRequest, body: `{"message":"Student ID already exists"}`, wantKind: KindConflict, wantMsg: "Student ID already exists"},
		{name: "conflict in 500 body", status: http.StatusInternalServerError, body: `{"error":"profile already exists"}`, wantKind: KindConflict, wantMsg: "profile already exists"},
		{name: "validation", status: http.StatusUnprocessableEntity, body: `{"message":"cgpa must be a number"}`, wantKind: KindValidation, wantMsg: "cgpa must be a number"},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`, wantKind: KindUnknown, wantMsg: "oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, tt.status, tt.body)
			_, err := newTestClient(srv.URL).Create(context.Background(), "u1", domain.Submission{})
			if err == nil {
				t.Fatal("expected error")
			}
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("expected *APIError, got %T", err)
			}
			if apiErr.Kind != tt.wantKind || apiErr.Status != tt.status || apiErr.Message != tt.wantMsg {
				t.Fatalf("got %s/%d/%q, want %s/%d/%q", apiErr.Kind, apiErr.Status, apiErr.Message, tt.wantKind, tt.status, tt.wantMsg)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `{}`)
	client := newTestClient(srv.URL)
	srv.Close()

	_, err := client.Fetch(context.Background(), "u1")
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(config.ProfileAPIConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1}).Fetch(ctx, "u1")
	if KindOf(err) != KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}
