package conversation

import (
	"time"

	"github.com/campusbridge/marketplace-backend/internal/domain"
)

// Labels for the two most recent days
const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"
)

// Day is a calendar date in the viewer's location
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf returns the calendar date of t in loc
func DayOf(t time.Time, loc *time.Location) Day {
	y, m, d := t.In(loc).Date()
	return Day{Year: y, Month: m, Day: d}
}

// DayKey returns the calendar date a message was sent on, as seen from loc
func DayKey(m *domain.Message, loc *time.Location) Day {
	return DayOf(m.Timestamp, loc)
}

// Label renders d relative to now: Today, Yesterday, or "Jan 2"
func (d Day) Label(now time.Time, loc *time.Location) string {
	local := now.In(loc)
	if d == DayOf(local, loc) {
		return LabelToday
	}
	if d == DayOf(local.AddDate(0, 0, -1), loc) {
		return LabelYesterday
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc).Format("Jan 2")
}

// DayGroup is a run of messages sent on the same day
type DayGroup struct {
	Day      Day
	Label    string
	Messages []*domain.Message
}

// GroupByDay splits an ordered conversation into per-day sections
func GroupByDay(conv []*domain.Message, now time.Time, loc *time.Location) []DayGroup {
	var groups []DayGroup
	for _, m := range conv {
		d := DayKey(m, loc)
		if n := len(groups); n > 0 && groups[n-1].Day == d {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, DayGroup{Day: d, Label: d.Label(now, loc), Messages: []*domain.Message{m}})
	}
	return groups
}
