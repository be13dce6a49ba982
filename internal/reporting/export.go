package reporting

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/example/tutor-marketplace/internal/lifecycle"
)

const defaultSheet = "Sheet1"

// sheetWriter appends rows to one worksheet and keeps the first error.
type sheetWriter struct {
	file        *excelize.File
	name        string
	row         int
	headerStyle int
	err         error
}

func newSheet(f *excelize.File, name string, headerStyle int) *sheetWriter {
	w := &sheetWriter{file: f, name: name, row: 1, headerStyle: headerStyle}
	if _, err := f.NewSheet(name); err != nil {
		w.err = fmt.Errorf("reporting: create sheet %s: %w", name, err)
	}
	return w
}

func (w *sheetWriter) append(values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.file.SetSheetRow(w.name, cell, &values); err != nil {
		w.err = fmt.Errorf("reporting: write %s!%s: %w", w.name, cell, err)
		return
	}
	w.row++
}

func (w *sheetWriter) header(values ...any) {
	start := w.row
	w.append(values...)
	if w.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, start)
	last, _ := excelize.CoordinatesToCellName(len(values), start)
	if err := w.file.SetCellStyle(w.name, first, last, w.headerStyle); err != nil {
		w.err = err
	}
}

func newWorkbook() (*excelize.File, int, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("reporting: header style: %w", err)
	}
	return f, style, nil
}

func finish(f *excelize.File, w io.Writer, sheets ...*sheetWriter) error {
	for _, s := range sheets {
		if s.err != nil {
			return s.err
		}
	}
	if idx, err := f.GetSheetIndex(sheets[0].name); err == nil {
		f.SetActiveSheet(idx)
	}
	if err := f.DeleteSheet(defaultSheet); err != nil {
		return fmt.Errorf("reporting: drop default sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("reporting: write workbook: %w", err)
	}
	return nil
}

// WriteAnalyticsXLSX renders the overview report as a workbook with one sheet
// per section.
func WriteAnalyticsXLSX(w io.Writer, report Analytics) error {
	f, style, err := newWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	overview := newSheet(f, "Overview", style)
	overview.header("Metric", "Value")
	overview.append("As of", report.Today.String())
	overview.append("Mentors", report.Users.TotalMentors)
	overview.append("Active mentors", report.Users.ActiveMentors)
	overview.append("Students", report.Users.TotalStudents)
	overview.append("Active students", report.Users.ActiveStudents)
	overview.append("Sessions", report.Sessions.Total)
	for _, status := range lifecycle.Statuses() {
		overview.append("Sessions "+status.String(), report.Sessions.ByStatus[status])
	}
	overview.append("Reviews", report.Ratings.TotalReviews)
	overview.append("Average rating", report.Ratings.AverageRating)
	overview.append("Sessions last 7 days", report.Engagement.SessionsLast7Days)
	overview.append("Reviews last 7 days", report.Engagement.ReviewsLast7Days)

	trend := newSheet(f, "Trend", style)
	trend.header("Date", "Sessions")
	for _, day := range report.Trend {
		trend.append(day.Date.String(), day.Count)
	}

	top := newSheet(f, "Top mentors", style)
	top.header("Mentor ID", "Name", "English level", "Average rating", "Reviews")
	for _, m := range report.TopMentors {
		top.append(m.MentorID, m.Name, m.EnglishLevel, m.AverageRating, m.ReviewCount)
	}

	return finish(f, w, overview, trend, top)
}

// WriteFinancialXLSX renders the revenue report as a workbook.
func WriteFinancialXLSX(w io.Writer, report Financial) error {
	f, style, err := newWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	summary := newSheet(f, "Summary", style)
	summary.header("Metric", "Value")
	if !report.Range.From.IsZero() {
		summary.append("From", report.Range.From.String())
	}
	if !report.Range.To.IsZero() {
		summary.append("To", report.Range.To.String())
	}
	summary.append("Sessions", report.Summary.TotalSessions)
	summary.append("Completed sessions", report.Summary.CompletedSessions)
	summary.append("Session rate", report.Summary.SessionRate)
	summary.append("Revenue", report.Summary.TotalRevenue)

	monthly := newSheet(f, "Monthly", style)
	monthly.header("Month", "Sessions", "Completed", "Cancelled", "Revenue")
	for _, m := range report.Monthly {
		monthly.append(m.Month, m.TotalSessions, m.CompletedSessions, m.CancelledSessions, m.Revenue)
	}

	earners := newSheet(f, "Top earners", style)
	earners.header("Mentor ID", "Name", "Email", "Completed", "Earnings")
	for _, e := range report.TopEarners {
		earners.append(e.MentorID, e.Name, e.Email, e.CompletedSessions, e.Earnings)
	}

	return finish(f, w, summary, monthly, earners)
}
