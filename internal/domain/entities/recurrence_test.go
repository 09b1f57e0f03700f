package entities

import (
	"errors"
	"testing"
	"time"
)

// 2026-03-02 is a Monday.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)

func at(day time.Time, hour, min int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, day.Location())
}

func TestClockTimeOn(t *testing.T) {
	slot, err := ClockTime("08:30").On(monday)
	if err != nil {
		t.Fatalf("On failed: %v", err)
	}
	if want := at(monday, 8, 30); !slot.Equal(want) {
		t.Errorf("got %v, want %v", slot, want)
	}

	if _, err := ClockTime("25:00").On(monday); err == nil {
		t.Error("expected error for invalid clock time")
	}
}

func TestNextOccurrenceOneOff(t *testing.T) {
	future := at(monday, 15, 0)
	r := &Reminder{ScheduledTime: future}

	next, err := r.NextOccurrence(at(monday, 10, 0))
	if err != nil {
		t.Fatalf("NextOccurrence failed: %v", err)
	}
	if !next.Equal(future) {
		t.Errorf("got %v, want %v", next, future)
	}

	if _, err := r.NextOccurrence(at(monday, 16, 0)); !errors.Is(err, ErrNoUpcomingSlot) {
		t.Errorf("got %v, want ErrNoUpcomingSlot", err)
	}
}

func TestNextOccurrenceRecurring(t *testing.T) {
	weekdays := WeekdaySet{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

	tests := []struct {
		name     string
		reminder Reminder
		now      time.Time
		want     time.Time
	}{
		{
			name: "daily later today",
			reminder: Reminder{
				Recurring:        true,
				RecurringPattern: PatternDaily,
				Times:            ClockTimes{"08:00", "20:00"},
			},
			now:  at(monday, 10, 0),
			want: at(monday, 20, 0),
		},
		{
			name: "daily rolls to tomorrow",
			reminder: Reminder{
				Recurring:        true,
				RecurringPattern: PatternDaily,
				Times:            ClockTimes{"08:00"},
			},
			now:  at(monday, 21, 0),
			want: at(monday.AddDate(0, 0, 1), 8, 0),
		},
		{
			name: "weekday slot just missed resolves to next weekday",
			reminder: Reminder{
				Recurring:        true,
				RecurringPattern: PatternWeekly,
				Days:             weekdays,
				Times:            ClockTimes{"08:00"},
			},
			now:  at(monday, 8, 5),
			want: at(monday.AddDate(0, 0, 1), 8, 0),
		},
		{
			name: "weekly skips unselected days",
			reminder: Reminder{
				Recurring:        true,
				RecurringPattern: PatternWeekly,
				Days:             WeekdaySet{time.Friday},
				Times:            ClockTimes{"09:00"},
			},
			now:  at(monday, 12, 0),
			want: at(monday.AddDate(0, 0, 4), 9, 0),
		},
		{
			name: "weekly crosses the week boundary",
			reminder: Reminder{
				Recurring:        true,
				RecurringPattern: PatternWeekly,
				Days:             WeekdaySet{time.Monday},
				Times:            ClockTimes{"08:00"},
			},
			now:  at(monday, 9, 0),
			want: at(monday.AddDate(0, 0, 7), 8, 0),
		},
		{
			name: "empty times falls back to the original schedule's clock time",
			reminder: Reminder{
				Recurring:        true,
				RecurringPattern: PatternDaily,
				ScheduledTime:    at(monday, 7, 45),
			},
			now:  at(monday, 8, 0),
			want: at(monday.AddDate(0, 0, 1), 7, 45),
		},
		{
			name: "slot exactly at now counts as passed",
			reminder: Reminder{
				Recurring:        true,
				RecurringPattern: PatternDaily,
				Times:            ClockTimes{"08:00"},
			},
			now:  at(monday, 8, 0),
			want: at(monday.AddDate(0, 0, 1), 8, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := tt.reminder.NextOccurrence(tt.now)
			if err != nil {
				t.Fatalf("NextOccurrence failed: %v", err)
			}
			if !next.Equal(tt.want) {
				t.Errorf("got %v, want %v", next, tt.want)
			}
		})
	}
}

func TestNextOccurrenceNoSelectedDays(t *testing.T) {
	r := &Reminder{
		Recurring:        true,
		RecurringPattern: PatternWeekly,
		Days:             WeekdaySet{},
		Times:            ClockTimes{"08:00"},
	}

	// An empty weekly day set means every day qualifies.
	next, err := r.NextOccurrence(at(monday, 9, 0))
	if err != nil {
		t.Fatalf("NextOccurrence failed: %v", err)
	}
	if want := at(monday.AddDate(0, 0, 1), 8, 0); !next.Equal(want) {
		t.Errorf("got %v, want %v", next, want)
	}
}

func TestWeekdaySetRoundTrip(t *testing.T) {
	ws := WeekdaySet{time.Monday, time.Wednesday, time.Friday}

	v, err := ws.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "1,3,5" {
		t.Errorf("got %q, want %q", v, "1,3,5")
	}

	var scanned WeekdaySet
	if err := scanned.Scan("1,3,5"); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(scanned) != 3 || scanned[0] != time.Monday || scanned[2] != time.Friday {
		t.Errorf("unexpected scan result: %v", scanned)
	}

	var empty WeekdaySet
	if err := empty.Scan(""); err != nil {
		t.Fatalf("Scan of empty string failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty set, got %v", empty)
	}
}

func TestClockTimesRoundTrip(t *testing.T) {
	cts := ClockTimes{"08:00", "20:30"}

	v, err := cts.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != "08:00,20:30" {
		t.Errorf("got %q, want %q", v, "08:00,20:30")
	}

	if _, err := (ClockTimes{"8am"}).Value(); err == nil {
		t.Error("expected error for invalid clock time")
	}

	var scanned ClockTimes
	if err := scanned.Scan([]byte("08:00,20:30")); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(scanned) != 2 || scanned[1] != "20:30" {
		t.Errorf("unexpected scan result: %v", scanned)
	}
}
