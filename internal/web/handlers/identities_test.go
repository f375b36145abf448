package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/database"
)

func TestIdentitiesList(t *testing.T) {
	store, _ := testStore(t)
	index := database.NewCentroidIndex()
	handler := NewIdentitiesHandler(store, index, testDim)

	req := httptest.NewRequest(http.MethodGet, "/identities", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var result struct {
		Identities []identityResponse `json:"identities"`
		Count      int                `json:"count"`
	}
	parseJSONResponse(t, rec, &result)

	if result.Count != 2 {
		t.Errorf("expected 2 identities, got %d", result.Count)
	}
	if result.Identities[0].ID != "prof_a" {
		t.Errorf("expected prof_a first, got %s", result.Identities[0].ID)
	}
}

func TestIdentitiesEnroll(t *testing.T) {
	store, _ := testStore(t)
	index := database.NewCentroidIndex()
	handler := NewIdentitiesHandler(store, index, testDim)

	t.Run("Success", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/identities", map[string]any{
			"id":           "stu_c",
			"display_name": "Student C",
			"centroid":     []float32{0, 0, 1},
			"sample_count": 7,
		})
		rec := httptest.NewRecorder()
		handler.Enroll(rec, req)

		assertStatusCode(t, rec, http.StatusCreated)

		var result identityResponse
		parseJSONResponse(t, rec, &result)
		if result.ID != "stu_c" || result.SampleCount != 7 {
			t.Errorf("unexpected enroll response: %+v", result)
		}
		if index.GetIdentity("stu_c") == nil {
			t.Error("expected enrolled identity to be added to the index")
		}
	})

	t.Run("WrongDimension", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/identities", map[string]any{
			"id":           "stu_d",
			"display_name": "Student D",
			"centroid":     []float32{0, 1},
		})
		rec := httptest.NewRecorder()
		handler.Enroll(rec, req)

		assertStatusCode(t, rec, http.StatusBadRequest)
	})

	t.Run("MissingFields", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/identities", map[string]any{
			"centroid": []float32{0, 0, 1},
		})
		rec := httptest.NewRecorder()
		handler.Enroll(rec, req)

		assertStatusCode(t, rec, http.StatusBadRequest)
		assertJSONError(t, rec, "id and display_name are required")
	})

	t.Run("InvalidBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/identities", nil)
		rec := httptest.NewRecorder()
		handler.Enroll(rec, req)

		assertStatusCode(t, rec, http.StatusBadRequest)
	})
}

func TestIdentitiesGet(t *testing.T) {
	store, _ := testStore(t)
	handler := NewIdentitiesHandler(store, database.NewCentroidIndex(), testDim)

	t.Run("Found", func(t *testing.T) {
		req := requestWithChiParams(
			httptest.NewRequest(http.MethodGet, "/identities/prof_a", nil),
			map[string]string{"id": "prof_a"},
		)
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		assertStatusCode(t, rec, http.StatusOK)

		var result identityResponse
		parseJSONResponse(t, rec, &result)
		if result.DisplayName != "Professor A" {
			t.Errorf("expected 'Professor A', got '%s'", result.DisplayName)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		req := requestWithChiParams(
			httptest.NewRequest(http.MethodGet, "/identities/ghost", nil),
			map[string]string{"id": "ghost"},
		)
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		assertStatusCode(t, rec, http.StatusNotFound)
	})
}

func TestIdentitiesSimilar(t *testing.T) {
	store, _ := testStore(t)

	index := database.NewCentroidIndex()
	identities := []database.StoredIdentity{
		{ID: "prof_a", DisplayName: "Professor A", Centroid: []float32{1, 0, 0}},
		{ID: "stu_b", DisplayName: "Student B", Centroid: []float32{0, 1, 0}},
		{ID: "stu_twin", DisplayName: "Twin", Centroid: []float32{0.99, 0.1, 0}},
	}
	if err := index.Build(identities); err != nil {
		t.Fatalf("failed to build index: %v", err)
	}

	handler := NewIdentitiesHandler(store, index, testDim)

	t.Run("FindsClosest", func(t *testing.T) {
		req := requestWithChiParams(
			httptest.NewRequest(http.MethodGet, "/identities/prof_a/similar?limit=2", nil),
			map[string]string{"id": "prof_a"},
		)
		rec := httptest.NewRecorder()
		handler.Similar(rec, req)

		assertStatusCode(t, rec, http.StatusOK)

		var result struct {
			Identity string            `json:"identity"`
			Similar  []similarIdentity `json:"similar"`
		}
		parseJSONResponse(t, rec, &result)

		if len(result.Similar) == 0 {
			t.Fatal("expected at least one similar identity")
		}
		if result.Similar[0].ID != "stu_twin" {
			t.Errorf("expected stu_twin to be the closest, got %s", result.Similar[0].ID)
		}
		for _, s := range result.Similar {
			if s.ID == "prof_a" {
				t.Error("the identity itself must not appear in its similar list")
			}
		}
	})

	t.Run("NotIndexed", func(t *testing.T) {
		req := requestWithChiParams(
			httptest.NewRequest(http.MethodGet, "/identities/ghost/similar", nil),
			map[string]string{"id": "ghost"},
		)
		rec := httptest.NewRecorder()
		handler.Similar(rec, req)

		assertStatusCode(t, rec, http.StatusNotFound)
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		req := requestWithChiParams(
			httptest.NewRequest(http.MethodGet, "/identities/prof_a/similar?limit=0", nil),
			map[string]string{"id": "prof_a"},
		)
		rec := httptest.NewRecorder()
		handler.Similar(rec, req)

		assertStatusCode(t, rec, http.StatusBadRequest)
	})
}

func TestIdentitiesDelete(t *testing.T) {
	store, _ := testStore(t)
	index := database.NewCentroidIndex()
	if err := index.Build([]database.StoredIdentity{
		{ID: "stu_b", DisplayName: "Student B", Centroid: []float32{0, 1, 0}},
	}); err != nil {
		t.Fatalf("failed to build index: %v", err)
	}
	handler := NewIdentitiesHandler(store, index, testDim)

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodDelete, "/identities/stu_b", nil),
		map[string]string{"id": "stu_b"},
	)
	rec := httptest.NewRecorder()
	handler.Delete(rec, req)

	assertStatusCode(t, rec, http.StatusOK)
	if index.GetIdentity("stu_b") != nil {
		t.Error("expected identity to be removed from the index")
	}
}
