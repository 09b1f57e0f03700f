package entities

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time-of-day slot in "HH:MM" form.
type ClockTime string

// On resolves the slot onto the calendar day of t, in t's location.
func (ct ClockTime) On(t time.Time) (time.Time, error) {
	parsed, err := time.Parse("15:04", string(ct))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock time %q: %w", ct, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), parsed.Hour(), parsed.Minute(), 0, 0, t.Location()), nil
}

func (ct ClockTime) IsValid() bool {
	_, err := time.Parse("15:04", string(ct))
	return err == nil
}

// ClockTimes is the per-reminder list of daily slots, stored as a
// comma-joined text column.
type ClockTimes []ClockTime

func (cts ClockTimes) Value() (driver.Value, error) {
	parts := make([]string, len(cts))
	for i, ct := range cts {
		if !ct.IsValid() {
			return nil, fmt.Errorf("invalid clock time %q", ct)
		}
		parts[i] = string(ct)
	}
	return strings.Join(parts, ","), nil
}

func (cts *ClockTimes) Scan(src interface{}) error {
	s, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scan clock times: %w", err)
	}
	*cts = nil
	if s == "" {
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		*cts = append(*cts, ClockTime(strings.TrimSpace(part)))
	}
	return nil
}

// WeekdaySet is the selected weekday list for weekly recurrence, stored as
// comma-joined integers (time.Weekday values, Sunday=0).
type WeekdaySet []time.Weekday

func (ws WeekdaySet) Contains(d time.Weekday) bool {
	for _, w := range ws {
		if w == d {
			return true
		}
	}
	return false
}

func (ws WeekdaySet) Value() (driver.Value, error) {
	parts := make([]string, len(ws))
	for i, w := range ws {
		if w < time.Sunday || w > time.Saturday {
			return nil, fmt.Errorf("invalid weekday %d", w)
		}
		parts[i] = strconv.Itoa(int(w))
	}
	return strings.Join(parts, ","), nil
}

func (ws *WeekdaySet) Scan(src interface{}) error {
	s, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scan weekday set: %w", err)
	}
	*ws = nil
	if s == "" {
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return fmt.Errorf("scan weekday set: %w", err)
		}
		*ws = append(*ws, time.Weekday(n))
	}
	return nil
}

func scanString(src interface{}) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported source type %T", src)
	}
}

// NextOccurrence computes the soonest instant strictly after now that
// satisfies the recurrence inputs. Only the next instant is ever computed;
// there is no materialized recurrence schedule. A slot exactly at now is
// considered passed, so a Mon-Fri 08:00 schedule evaluated Monday 08:05
// resolves to Tuesday 08:00.
func (r *Reminder) NextOccurrence(now time.Time) (time.Time, error) {
	if !r.Recurring {
		if r.ScheduledTime.After(now) {
			return r.ScheduledTime, nil
		}
		return time.Time{}, ErrNoUpcomingSlot
	}

	times := r.Times
	if len(times) == 0 {
		// Fall back to the clock time of the original schedule.
		times = ClockTimes{ClockTime(r.ScheduledTime.Format("15:04"))}
	}

	var best time.Time
	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		if r.RecurringPattern == PatternWeekly && len(r.Days) > 0 && !r.Days.Contains(day.Weekday()) {
			continue
		}
		for _, ct := range times {
			slot, err := ct.On(day)
			if err != nil {
				return time.Time{}, err
			}
			if !slot.After(now) {
				continue
			}
			if best.IsZero() || slot.Before(best) {
				best = slot
			}
		}
	}
	if best.IsZero() {
		return time.Time{}, ErrNoUpcomingSlot
	}
	return best, nil
}
