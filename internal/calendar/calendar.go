// Package calendar maps a studio's weekly timetable onto concrete dates.
// Every function here is pure.
//
// Dates are civil dates carried as time.Time at 00:00 UTC. The studio's
// location only matters when a date and a time of day are combined into an
// instant (SlotStart) or when an instant is reduced to a date (DateOf).
package calendar

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kirinyoku/bedslot/internal/domain"
)

// Timetable lists the offered times of day per weekday.
type Timetable struct {
	slots [7][]domain.TimeOfDay
}

// NewTimetable builds a timetable from a weekday map. Times are sorted and
// deduplicated.
func NewTimetable(byDay map[time.Weekday][]domain.TimeOfDay) Timetable {
	var tt Timetable
	for wd, times := range byDay {
		tt.slots[wd] = normalize(times)
	}
	return tt
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseTimetable parses "mon-fri=07:00,08:00;sat=09:00". Day ranges may wrap
// around the week ("fri-mon"). Later groups add to earlier ones.
func ParseTimetable(s string) (Timetable, error) {
	const op = "calendar.ParseTimetable"

	byDay := make(map[time.Weekday][]domain.TimeOfDay)

	for _, group := range strings.Split(s, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}

		days, times, ok := strings.Cut(group, "=")
		if !ok {
			return Timetable{}, fmt.Errorf("%s: group %q has no '='", op, group)
		}

		weekdays, err := parseDays(days)
		if err != nil {
			return Timetable{}, fmt.Errorf("%s:%w", op, err)
		}

		var parsed []domain.TimeOfDay
		for _, raw := range strings.Split(times, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			tod, err := domain.ParseTimeOfDay(raw)
			if err != nil {
				return Timetable{}, fmt.Errorf("%s:%w", op, err)
			}
			parsed = append(parsed, tod)
		}

		for _, wd := range weekdays {
			byDay[wd] = append(byDay[wd], parsed...)
		}
	}

	return NewTimetable(byDay), nil
}

// ParseWeekday accepts a three-letter or full English weekday name, in any
// case.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) > 3 {
		for _, wd := range weekdayNames {
			if strings.ToLower(wd.String()) == s {
				return wd, nil
			}
		}
	}
	wd, ok := weekdayNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return wd, nil
}

func parseDays(s string) ([]time.Weekday, error) {
	from, to, isRange := strings.Cut(s, "-")
	start, err := ParseWeekday(from)
	if err != nil {
		return nil, err
	}
	if !isRange {
		return []time.Weekday{start}, nil
	}

	end, err := ParseWeekday(to)
	if err != nil {
		return nil, err
	}

	var out []time.Weekday
	for wd := start; ; wd = (wd + 1) % 7 {
		out = append(out, wd)
		if wd == end {
			break
		}
	}
	return out, nil
}

// SlotsOn returns the offered times for the weekday of date, ascending.
func (t Timetable) SlotsOn(date time.Time) []domain.TimeOfDay {
	return slices.Clone(t.slots[date.Weekday()])
}

// TimesOn returns the offered times for a weekday, ascending.
func (t Timetable) TimesOn(wd time.Weekday) []domain.TimeOfDay {
	return slices.Clone(t.slots[wd])
}

// Offers reports whether tod is a bookable time on date.
func (t Timetable) Offers(date time.Time, tod domain.TimeOfDay) bool {
	return t.OffersOn(date.Weekday(), tod)
}

func (t Timetable) OffersOn(wd time.Weekday, tod domain.TimeOfDay) bool {
	return slices.Contains(t.slots[wd], tod)
}

func (t Timetable) String() string {
	names := [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

	var groups []string
	for wd, times := range t.slots {
		if len(times) == 0 {
			continue
		}
		parts := make([]string, len(times))
		for i, tod := range times {
			parts[i] = tod.String()
		}
		groups = append(groups, names[wd]+"="+strings.Join(parts, ","))
	}
	return strings.Join(groups, ";")
}

func normalize(times []domain.TimeOfDay) []domain.TimeOfDay {
	out := slices.Clone(times)
	slices.SortFunc(out, func(a, b domain.TimeOfDay) int {
		return a.Minutes() - b.Minutes()
	})
	return slices.Compact(out)
}

// Date returns the civil date y-m-d.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf reduces an instant to the civil date it falls on in loc.
func DateOf(instant time.Time, loc *time.Location) time.Time {
	y, m, d := instant.In(loc).Date()
	return Date(y, m, d)
}

// SlotStart is the instant a slot begins in the studio location.
func SlotStart(date time.Time, tod domain.TimeOfDay, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, tod.Hour, tod.Minute, 0, 0, loc)
}

// EndOfMonth returns the last civil date of date's month.
func EndOfMonth(date time.Time) time.Time {
	y, m, _ := date.Date()
	return Date(y, m+1, 0)
}

// NextWeekday returns the first date on or after from that falls on wd.
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	delta := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDate(0, 0, delta)
}

// ParseDate parses "2006-01-02" into a civil date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}
