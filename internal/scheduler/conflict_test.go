package scheduler

import (
	"math/rand"
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) TimeOfDay {
	t.Helper()
	tod, err := ParseTimeOfDay(value)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", value, err)
	}
	return tod
}

func mustInterval(t *testing.T, start, end string) Interval {
	t.Helper()
	iv, err := NewInterval(mustTime(t, start), mustTime(t, end))
	if err != nil {
		t.Fatalf("NewInterval(%s, %s): %v", start, end, err)
	}
	return iv
}

func TestIntervalOverlaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b [2]string
		want bool
	}{
		{name: "partial overlap", a: [2]string{"09:00", "10:00"}, b: [2]string{"09:30", "10:30"}, want: true},
		{name: "contained", a: [2]string{"09:00", "12:00"}, b: [2]string{"10:00", "11:00"}, want: true},
		{name: "touching end to start", a: [2]string{"09:00", "10:00"}, b: [2]string{"10:00", "11:00"}, want: false},
		{name: "disjoint", a: [2]string{"09:00", "10:00"}, b: [2]string{"11:00", "12:00"}, want: false},
		{name: "identical", a: [2]string{"09:00", "10:00"}, b: [2]string{"09:00", "10:00"}, want: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a := mustInterval(t, tc.a[0], tc.a[1])
			b := mustInterval(t, tc.b[0], tc.b[1])
			if got := a.Overlaps(b); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			if got := b.Overlaps(a); got != tc.want {
				t.Fatalf("Overlaps is not symmetric: %v", got)
			}
		})
	}

	t.Run("empty interval never overlaps", func(t *testing.T) {
		t.Parallel()
		point := Interval{Start: mustTime(t, "09:30"), End: mustTime(t, "09:30")}
		if point.Overlaps(mustInterval(t, "09:00", "10:00")) {
			t.Fatal("zero-length interval must not overlap")
		}
	})
}

func TestFindWindow(t *testing.T) {
	t.Parallel()

	monday, err := NewDate(2024, time.March, 11)
	if err != nil {
		t.Fatalf("NewDate: %v", err)
	}
	windows := []Window{
		{ID: "w1", DayOfWeek: 1, Interval: mustInterval(t, "09:00", "12:00")},
		{ID: "w2", DayOfWeek: 1, Interval: mustInterval(t, "12:00", "14:00")},
		{ID: "w3", DayOfWeek: 2, Interval: mustInterval(t, "08:00", "20:00")},
	}

	t.Run("contained in a single window", func(t *testing.T) {
		t.Parallel()
		w, ok := FindWindow(windows, monday, mustInterval(t, "09:00", "10:00"))
		if !ok || w.ID != "w1" {
			t.Fatalf("expected w1, got %+v ok=%v", w, ok)
		}
	})

	t.Run("window boundaries are inclusive", func(t *testing.T) {
		t.Parallel()
		if _, ok := FindWindow(windows, monday, mustInterval(t, "09:00", "12:00")); !ok {
			t.Fatal("expected exact window match")
		}
	})

	t.Run("adjacent windows are not merged", func(t *testing.T) {
		t.Parallel()
		if _, ok := FindWindow(windows, monday, mustInterval(t, "11:00", "13:00")); ok {
			t.Fatal("range spanning two windows must not match")
		}
	})

	t.Run("other weekday windows are ignored", func(t *testing.T) {
		t.Parallel()
		if _, ok := FindWindow(windows, monday, mustInterval(t, "15:00", "16:00")); ok {
			t.Fatal("tuesday window must not satisfy a monday request")
		}
	})
}

func TestDetectConflicts(t *testing.T) {
	t.Parallel()

	day, _ := NewDate(2024, time.March, 11)
	other := day.AddDays(1)
	existing := []Booking{
		{ID: "s1", Date: day, Interval: mustInterval(t, "09:00", "10:00")},
		{ID: "s2", Date: day, Interval: mustInterval(t, "11:00", "12:00")},
		{ID: "s3", Date: other, Interval: mustInterval(t, "09:00", "10:00")},
	}

	t.Run("overlap on same date produces conflict", func(t *testing.T) {
		t.Parallel()
		got := DetectConflicts(existing, Booking{Date: day, Interval: mustInterval(t, "09:30", "10:30")})
		if len(got) != 1 || got[0].ID != "s1" {
			t.Fatalf("expected conflict with s1, got %+v", got)
		}
	})

	t.Run("adjacent bookings do not conflict", func(t *testing.T) {
		t.Parallel()
		got := DetectConflicts(existing, Booking{Date: day, Interval: mustInterval(t, "10:00", "11:00")})
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("booking does not conflict with itself", func(t *testing.T) {
		t.Parallel()
		got := DetectConflicts(existing, Booking{ID: "s1", Date: day, Interval: mustInterval(t, "09:15", "09:45")})
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})
}

// Accepting candidates one by one must reject exactly those that overlap an
// already accepted booking, leaving a pairwise disjoint set.
func TestDetectConflictsAcceptedSetIsDisjoint(t *testing.T) {
	t.Parallel()

	day, _ := NewDate(2024, time.March, 11)
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		accepted := make([]Booking, 0)
		for i := 0; i < 20; i++ {
			start := TimeOfDay(rng.Intn(20*60) * 60)
			end := start + TimeOfDay((1+rng.Intn(180))*60)
			candidate := Booking{Date: day, Interval: Interval{Start: start, End: end}}

			expectConflict := false
			for _, b := range accepted {
				if b.Interval.Start < end && start < b.Interval.End {
					expectConflict = true
					break
				}
			}

			conflicts := DetectConflicts(accepted, candidate)
			if (len(conflicts) > 0) != expectConflict {
				t.Fatalf("round %d: candidate %v conflict=%v, want %v", round, candidate.Interval, len(conflicts) > 0, expectConflict)
			}
			if len(conflicts) == 0 {
				accepted = append(accepted, candidate)
			}
		}

		for i := range accepted {
			for j := i + 1; j < len(accepted); j++ {
				if accepted[i].Interval.Overlaps(accepted[j].Interval) {
					t.Fatalf("round %d: accepted overlapping bookings %v and %v", round, accepted[i].Interval, accepted[j].Interval)
				}
			}
		}
	}
}
