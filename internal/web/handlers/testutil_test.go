package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

const testDim = 3

// testStore creates a mock store seeded with two identities and one class.
func testStore(t *testing.T) (*mock.MockStore, string) {
	t.Helper()
	store := mock.NewMockStore()
	ctx := context.Background()

	if err := store.UpsertIdentity(ctx, database.StoredIdentity{
		ID:          "prof_a",
		DisplayName: "Professor A",
		Centroid:    []float32{1, 0, 0},
		Dim:         testDim,
		SampleCount: 10,
	}); err != nil {
		t.Fatalf("failed to seed professor: %v", err)
	}
	if err := store.UpsertIdentity(ctx, database.StoredIdentity{
		ID:          "stu_b",
		DisplayName: "Student B",
		Centroid:    []float32{0, 1, 0},
		Dim:         testDim,
		SampleCount: 5,
	}); err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}

	classID := "11111111-2222-3333-4444-555555555555"
	if err := store.CreateClass(ctx, database.Class{
		ID:          classID,
		Name:        "Statistics 101",
		ProfessorID: "prof_a",
	}); err != nil {
		t.Fatalf("failed to seed class: %v", err)
	}

	return store, classID
}

// newJSONRequest creates a request with a JSON-encoded body.
func newJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
