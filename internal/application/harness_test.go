package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/persistence/sqlite"
	"github.com/example/tutor-marketplace/internal/testfixtures"
)

type harness struct {
	store    *sqlite.Store
	factory  *testfixtures.ServiceFactory
	services testfixtures.Services
	mentor   testfixtures.MentorFixture
	student  testfixtures.StudentFixture
}

// newHarness seeds one active mentor with a Monday 09:00-12:00 window and one student.
func newHarness(t *testing.T, opts ...testfixtures.ServiceFactoryOption) *harness {
	t.Helper()

	store := testfixtures.NewSQLiteStore(t)
	factory := testfixtures.NewServiceFactory(opts...)
	mentor := testfixtures.NewMentorFixture()
	student := testfixtures.NewStudentFixture()
	testfixtures.Seed(t, store,
		mentor.Persistence(),
		student.Persistence(),
		testfixtures.NewSlot(mentor.ID, 1, "09:00", "12:00"),
	)
	return &harness{
		store:    store,
		factory:  factory,
		services: factory.NewServices(store),
		mentor:   mentor,
		student:  student,
	}
}

// book books the harness student with the harness mentor on 2024-03-18, a Monday.
func (h *harness) book(t *testing.T, start, end string) (persistence.Session, error) {
	t.Helper()
	return h.services.Booking.BookSession(context.Background(), application.BookSessionParams{
		Principal: h.student.Principal(),
		MentorID:  h.mentor.ID,
		Date:      "2024-03-18",
		StartTime: start,
		EndTime:   end,
	})
}

func (h *harness) mustBook(t *testing.T, start, end string) persistence.Session {
	t.Helper()
	session, err := h.book(t, start, end)
	require.NoError(t, err)
	return session
}

func (h *harness) transition(t *testing.T, principal application.Principal, sessionID, status string) (persistence.Session, error) {
	t.Helper()
	return h.services.Sessions.Transition(context.Background(), application.TransitionParams{
		Principal: principal,
		SessionID: sessionID,
		Status:    status,
	})
}

// complete books 09:00-10:00 on date and walks it to completed.
func (h *harness) complete(t *testing.T, date string) persistence.Session {
	t.Helper()
	session, err := h.services.Booking.BookSession(context.Background(), application.BookSessionParams{
		Principal: h.student.Principal(),
		MentorID:  h.mentor.ID,
		Date:      date,
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	require.NoError(t, err)
	_, err = h.transition(t, h.mentor.Principal(), session.ID, "confirmed")
	require.NoError(t, err)
	completed, err := h.transition(t, h.mentor.Principal(), session.ID, "completed")
	require.NoError(t, err)
	return completed
}

func (h *harness) mentorRow(t *testing.T) persistence.Mentor {
	t.Helper()
	var mentor persistence.Mentor
	testfixtures.Read(t, h.store, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		mentor, err = tx.GetMentor(ctx, h.mentor.ID)
		return err
	})
	return mentor
}

func (h *harness) studentRow(t *testing.T) persistence.Student {
	t.Helper()
	var student persistence.Student
	testfixtures.Read(t, h.store, func(ctx context.Context, tx persistence.Tx) error {
		var err error
		student, err = tx.GetStudent(ctx, h.student.ID)
		return err
	})
	return student
}
