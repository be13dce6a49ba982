package reporting

import (
	"fmt"
	"sort"

	"github.com/example/tutor-marketplace/internal/lifecycle"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

// DefaultSessionRate is the flat revenue booked per completed session.
const DefaultSessionRate = 20.0

const topEarnerLimit = 20

// Range bounds a financial report by session date. Zero dates are open ends.
type Range struct {
	From scheduler.Date
	To   scheduler.Date
}

func (r Range) includes(d scheduler.Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// FinancialSummary totals the report.
type FinancialSummary struct {
	TotalSessions     int
	CompletedSessions int
	TotalRevenue      float64
	SessionRate       float64
}

// MonthlyRevenue is one calendar month bucket, keyed "YYYY-MM".
type MonthlyRevenue struct {
	Month             string
	TotalSessions     int
	CompletedSessions int
	CancelledSessions int
	Revenue           float64
}

// MentorEarnings ranks mentors by completed-session revenue.
type MentorEarnings struct {
	MentorID          string
	Name              string
	Email             string
	CompletedSessions int
	Earnings          float64
}

// Financial is the revenue report.
type Financial struct {
	Range      Range
	Summary    FinancialSummary
	Monthly    []MonthlyRevenue
	TopEarners []MentorEarnings
}

// BuildFinancial computes revenue at rate per completed session. A
// non-positive rate falls back to DefaultSessionRate.
func BuildFinancial(data Dataset, rate float64, window Range) Financial {
	if rate <= 0 {
		rate = DefaultSessionRate
	}
	report := Financial{Range: window, Summary: FinancialSummary{SessionRate: rate}}

	months := make(map[string]*MonthlyRevenue)
	completedByMentor := make(map[string]int)
	for _, s := range data.Sessions {
		if !window.includes(s.SessionDate) {
			continue
		}
		key := fmt.Sprintf("%04d-%02d", s.SessionDate.Year(), int(s.SessionDate.Month()))
		bucket, ok := months[key]
		if !ok {
			bucket = &MonthlyRevenue{Month: key}
			months[key] = bucket
		}
		bucket.TotalSessions++
		report.Summary.TotalSessions++
		switch s.Status {
		case lifecycle.Completed:
			bucket.CompletedSessions++
			bucket.Revenue += rate
			report.Summary.CompletedSessions++
			completedByMentor[s.MentorID]++
		case lifecycle.Cancelled:
			bucket.CancelledSessions++
		}
	}
	report.Summary.TotalRevenue = float64(report.Summary.CompletedSessions) * rate

	report.Monthly = make([]MonthlyRevenue, 0, len(months))
	for _, bucket := range months {
		report.Monthly = append(report.Monthly, *bucket)
	}
	sort.Slice(report.Monthly, func(i, j int) bool { return report.Monthly[i].Month > report.Monthly[j].Month })

	report.TopEarners = make([]MentorEarnings, 0)
	for _, m := range data.Mentors {
		completed := completedByMentor[m.ID]
		if completed == 0 {
			continue
		}
		report.TopEarners = append(report.TopEarners, MentorEarnings{
			MentorID:          m.ID,
			Name:              m.Name,
			Email:             m.Email,
			CompletedSessions: completed,
			Earnings:          float64(completed) * rate,
		})
	}
	sort.Slice(report.TopEarners, func(i, j int) bool {
		a, b := report.TopEarners[i], report.TopEarners[j]
		if a.Earnings != b.Earnings {
			return a.Earnings > b.Earnings
		}
		return a.MentorID < b.MentorID
	})
	if len(report.TopEarners) > topEarnerLimit {
		report.TopEarners = report.TopEarners[:topEarnerLimit]
	}
	return report
}
