package ledger

import (
	"sort"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// BuildSummary projects summary rows from the full event log plus the
// roster. Every distinct event date counts as one held class meeting; a
// roster member is present on a date when an event exists for them and
// absent otherwise, so present + absent always equals the total meeting
// count. The projection is a pure function and safe to regenerate at any
// time.
func BuildSummary(events []database.AttendanceEvent, roster []database.RosterMember) []database.SummaryRow {
	dates := make(map[string]struct{})
	presentDates := make(map[string]map[string]struct{}) // identityID -> set of dates

	for _, e := range events {
		dates[e.Date] = struct{}{}
		if presentDates[e.IdentityID] == nil {
			presentDates[e.IdentityID] = make(map[string]struct{})
		}
		presentDates[e.IdentityID][e.Date] = struct{}{}
	}

	total := len(dates)
	latest := latestDate(dates)

	rows := make([]database.SummaryRow, 0, len(roster))
	for _, member := range roster {
		present := len(presentDates[member.IdentityID])
		rows = append(rows, database.SummaryRow{
			IdentityID:   member.IdentityID,
			Name:         member.DisplayName,
			Date:         latest,
			PresentCount: present,
			AbsentCount:  total - present,
			TotalClasses: total,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].IdentityID < rows[j].IdentityID
	})
	return rows
}

// latestDate returns the lexicographically largest date, which for
// YYYY-MM-DD strings is also the most recent.
func latestDate(dates map[string]struct{}) string {
	var latest string
	for d := range dates {
		if d > latest {
			latest = d
		}
	}
	return latest
}
