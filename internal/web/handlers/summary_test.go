package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/database"
)

func TestSummaryGet(t *testing.T) {
	store, classID := testStore(t)
	handler := NewSummaryHandler(store)
	ctx := context.Background()

	stored := []database.SummaryRow{
		{IdentityID: "prof_a", Name: "Professor A", Date: "2026-08-29", PresentCount: 1, AbsentCount: 0, TotalClasses: 1},
	}
	if err := store.WriteSummary(ctx, classID, stored); err != nil {
		t.Fatalf("failed to seed summary: %v", err)
	}

	t.Run("Stored", func(t *testing.T) {
		req := requestWithChiParams(
			httptest.NewRequest(http.MethodGet, "/classes/"+classID+"/summary", nil),
			map[string]string{"id": classID},
		)
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		assertStatusCode(t, rec, http.StatusOK)

		var result struct {
			Summary []database.SummaryRow `json:"summary"`
		}
		parseJSONResponse(t, rec, &result)
		if len(result.Summary) != 1 || result.Summary[0].IdentityID != "prof_a" {
			t.Errorf("unexpected summary: %+v", result.Summary)
		}
	})

	t.Run("UnknownClass", func(t *testing.T) {
		req := requestWithChiParams(
			httptest.NewRequest(http.MethodGet, "/classes/ghost/summary", nil),
			map[string]string{"id": "ghost"},
		)
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		assertStatusCode(t, rec, http.StatusNotFound)
	})

	t.Run("EmptyWithoutSessions", func(t *testing.T) {
		emptyClass := uuid.NewString()
		if err := store.CreateClass(ctx, database.Class{ID: emptyClass, Name: "Fresh"}); err != nil {
			t.Fatalf("failed to create class: %v", err)
		}

		req := requestWithChiParams(
			httptest.NewRequest(http.MethodGet, "/classes/"+emptyClass+"/summary", nil),
			map[string]string{"id": emptyClass},
		)
		rec := httptest.NewRecorder()
		handler.Get(rec, req)

		assertStatusCode(t, rec, http.StatusOK)

		var result struct {
			Summary []database.SummaryRow `json:"summary"`
		}
		parseJSONResponse(t, rec, &result)
		if len(result.Summary) != 0 {
			t.Errorf("expected empty summary, got %+v", result.Summary)
		}
	})
}

func TestSummaryRecompute(t *testing.T) {
	store, classID := testStore(t)
	handler := NewSummaryHandler(store)
	ctx := context.Background()

	// Two events on different dates, only one roster member.
	for _, date := range []string{"2026-08-28", "2026-08-29"} {
		if err := store.AppendEvent(ctx, database.AttendanceEvent{
			ID:         uuid.NewString(),
			ClassID:    classID,
			IdentityID: "stu_b",
			Date:       date,
			RecordedAt: time.Now(),
			Role:       database.RoleStudent,
		}); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}
	if err := store.AddRosterMember(ctx, database.RosterMember{
		ClassID:     classID,
		IdentityID:  "stu_b",
		DisplayName: "Student B",
		Role:        database.RoleStudent,
	}); err != nil {
		t.Fatalf("failed to add roster member: %v", err)
	}

	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/classes/"+classID+"/summary?recompute=true", nil),
		map[string]string{"id": classID},
	)
	rec := httptest.NewRecorder()
	handler.Get(rec, req)

	assertStatusCode(t, rec, http.StatusOK)

	var result struct {
		Summary []database.SummaryRow `json:"summary"`
	}
	parseJSONResponse(t, rec, &result)
	if len(result.Summary) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(result.Summary))
	}
	row := result.Summary[0]
	if row.PresentCount != 2 || row.TotalClasses != 2 || row.AbsentCount != 0 {
		t.Errorf("unexpected recomputed row: %+v", row)
	}
	if row.Date != "2026-08-29" {
		t.Errorf("expected latest date 2026-08-29, got %s", row.Date)
	}

	// The recomputed rows are persisted.
	persisted, err := store.GetSummary(ctx, classID)
	if err != nil {
		t.Fatalf("failed to get persisted summary: %v", err)
	}
	if len(persisted) != 1 || persisted[0].PresentCount != 2 {
		t.Errorf("expected recompute to persist, got %+v", persisted)
	}
}
