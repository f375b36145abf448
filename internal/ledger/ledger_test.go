package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
)

const testClassID = "class-1"

func testRoster(ids ...string) []database.RosterMember {
	roster := make([]database.RosterMember, len(ids))
	for i, id := range ids {
		roster[i] = database.RosterMember{
			ClassID:     testClassID,
			IdentityID:  id,
			DisplayName: id,
			Role:        database.RoleStudent,
		}
	}
	return roster
}

func TestRecordCheckin_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	led, err := Open(ctx, store, testClassID)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	outcome, err := led.RecordCheckin(ctx, "alice", ts, database.RoleStudent)
	if err != nil {
		t.Fatalf("first check-in failed: %v", err)
	}
	if outcome != OutcomeRecorded {
		t.Errorf("expected first check-in Recorded, got %s", outcome)
	}

	// Same identity later the same day.
	outcome, err = led.RecordCheckin(ctx, "alice", ts.Add(2*time.Hour), database.RoleStudent)
	if err != nil {
		t.Fatalf("second check-in failed: %v", err)
	}
	if outcome != OutcomeAlreadyPresent {
		t.Errorf("expected second check-in AlreadyPresent, got %s", outcome)
	}

	if count := store.EventCount(testClassID); count != 1 {
		t.Errorf("expected exactly 1 persisted event, got %d", count)
	}
}

func TestRecordCheckin_NextDayRecordsAgain(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	led, err := Open(ctx, store, testClassID)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if _, err := led.RecordCheckin(ctx, "alice", ts, database.RoleStudent); err != nil {
		t.Fatalf("day one check-in failed: %v", err)
	}

	outcome, err := led.RecordCheckin(ctx, "alice", ts.AddDate(0, 0, 1), database.RoleStudent)
	if err != nil {
		t.Fatalf("day two check-in failed: %v", err)
	}
	if outcome != OutcomeRecorded {
		t.Errorf("expected Recorded on a new date, got %s", outcome)
	}
	if count := store.EventCount(testClassID); count != 2 {
		t.Errorf("expected 2 persisted events, got %d", count)
	}
}

func TestRecordCheckin_PersistenceUnavailable(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	led, err := Open(ctx, store, testClassID)
	if err != nil {
		t.Fatalf("failed to open ledger: %v", err)
	}

	store.AppendEventError = errors.New("connection refused")
	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, err = led.RecordCheckin(ctx, "alice", ts, database.RoleStudent)
	if !errors.Is(err, ErrPersistenceUnavailable) {
		t.Fatalf("expected ErrPersistenceUnavailable, got %v", err)
	}
	if count := store.EventCount(testClassID); count != 0 {
		t.Errorf("failed append must not leave an event, got %d", count)
	}

	// The failure is retryable: once the store recovers the same check-in
	// records normally.
	store.AppendEventError = nil
	outcome, err := led.RecordCheckin(ctx, "alice", ts, database.RoleStudent)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if outcome != OutcomeRecorded {
		t.Errorf("expected Recorded on retry, got %s", outcome)
	}
}

func TestRecordCheckin_ConcurrentWriterDuplicate(t *testing.T) {
	// Two ledgers over the same store simulate a writer that does not yet
	// see the other's event; the store's key constraint resolves the race.
	ctx := context.Background()
	store := mock.NewMockStore()
	first, _ := Open(ctx, store, testClassID)
	second, _ := Open(ctx, store, testClassID)

	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if _, err := first.RecordCheckin(ctx, "alice", ts, database.RoleStudent); err != nil {
		t.Fatalf("first writer failed: %v", err)
	}

	outcome, err := second.RecordCheckin(ctx, "alice", ts, database.RoleStudent)
	if err != nil {
		t.Fatalf("second writer failed: %v", err)
	}
	if outcome != OutcomeAlreadyPresent {
		t.Errorf("expected AlreadyPresent from store constraint, got %s", outcome)
	}
	if count := store.EventCount(testClassID); count != 1 {
		t.Errorf("expected exactly 1 persisted event, got %d", count)
	}
}

func TestClose_PresentPlusAbsentEqualsTotal(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	led, _ := Open(ctx, store, testClassID)

	day1 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 7)

	// alice attends both meetings, bob one, carol none.
	led.RecordCheckin(ctx, "alice", day1, database.RoleStudent)
	led.RecordCheckin(ctx, "bob", day1, database.RoleStudent)
	led.RecordCheckin(ctx, "alice", day2, database.RoleStudent)

	rows, err := led.Close(ctx, testRoster("alice", "bob", "carol"))
	if err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 summary rows, got %d", len(rows))
	}

	for _, row := range rows {
		if row.PresentCount+row.AbsentCount != row.TotalClasses {
			t.Errorf("row %s: present %d + absent %d != total %d",
				row.IdentityID, row.PresentCount, row.AbsentCount, row.TotalClasses)
		}
		if row.TotalClasses != 2 {
			t.Errorf("row %s: expected total 2, got %d", row.IdentityID, row.TotalClasses)
		}
	}

	if rows[0].IdentityID != "alice" || rows[0].PresentCount != 2 {
		t.Errorf("expected alice present 2, got %+v", rows[0])
	}
	if rows[1].IdentityID != "bob" || rows[1].PresentCount != 1 {
		t.Errorf("expected bob present 1, got %+v", rows[1])
	}
	if rows[2].IdentityID != "carol" || rows[2].PresentCount != 0 || rows[2].AbsentCount != 2 {
		t.Errorf("expected carol absent 2, got %+v", rows[2])
	}
}

func TestClose_ProjectionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := mock.NewMockStore()
	led, _ := Open(ctx, store, testClassID)

	ts := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	led.RecordCheckin(ctx, "alice", ts, database.RoleProfessor)
	led.RecordCheckin(ctx, "bob", ts, database.RoleStudent)

	roster := testRoster("alice", "bob")
	first, err := led.Close(ctx, roster)
	if err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	second, err := led.Close(ctx, roster)
	if err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("recomputing without new events changed rows:\nfirst:  %+v\nsecond: %+v", first, second)
	}

	stored, err := store.GetSummary(context.Background(), testClassID)
	if err != nil {
		t.Fatalf("reading stored summary: %v", err)
	}
	if !reflect.DeepEqual(stored, second) {
		t.Errorf("stored summary differs from returned rows")
	}
}

func TestBuildSummary_EmptyLedger(t *testing.T) {
	rows := BuildSummary(nil, testRoster("alice"))

	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.PresentCount != 0 || row.AbsentCount != 0 || row.TotalClasses != 0 {
		t.Errorf("expected zero counts with no events, got %+v", row)
	}
}

func TestBuildSummary_UsesLatestSessionDate(t *testing.T) {
	events := []database.AttendanceEvent{
		{IdentityID: "alice", Date: "2026-03-02"},
		{IdentityID: "alice", Date: "2026-03-09"},
		{IdentityID: "bob", Date: "2026-03-02"},
	}

	rows := BuildSummary(events, testRoster("alice", "bob"))
	for _, row := range rows {
		if row.Date != "2026-03-09" {
			t.Errorf("row %s: expected date 2026-03-09, got %s", row.IdentityID, row.Date)
		}
	}
}

func TestEventDate(t *testing.T) {
	ts := time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)
	if got := EventDate(ts); got != "2026-03-02" {
		t.Errorf("EventDate = %q, want 2026-03-02", got)
	}
}
