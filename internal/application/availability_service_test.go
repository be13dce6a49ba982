package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/testfixtures"
)

func TestReplaceAvailabilityIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	params := application.ReplaceAvailabilityParams{
		Principal: h.mentor.Principal(),
		MentorID:  h.mentor.ID,
		Slots: []application.SlotInput{
			{DayOfWeek: 3, StartTime: "13:00", EndTime: "15:00"},
			{DayOfWeek: 1, StartTime: "18:00", EndTime: "20:00"},
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30"},
		},
	}
	first, err := h.services.Availability.ReplaceAvailability(ctx, params)
	require.NoError(t, err)
	second, err := h.services.Availability.ReplaceAvailability(ctx, params)
	require.NoError(t, err)

	require.Len(t, first, 3)
	require.Len(t, second, 3)
	for i := range first {
		assert.Equal(t, first[i].DayOfWeek, second[i].DayOfWeek)
		assert.Equal(t, first[i].StartTime, second[i].StartTime)
		assert.Equal(t, first[i].EndTime, second[i].EndTime)
	}
	assert.Equal(t, 1, first[0].DayOfWeek)
	assert.Equal(t, "09:00:00", first[0].StartTime.String())
	assert.Equal(t, "18:00:00", first[1].StartTime.String())
	assert.Equal(t, 3, first[2].DayOfWeek)

	stored, err := h.services.Availability.GetAvailability(ctx, h.mentor.ID)
	require.NoError(t, err)
	assert.Equal(t, second, stored)
}

func TestReplaceAvailabilityRejectsAnyInvalidSlot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.services.Availability.ReplaceAvailability(ctx, application.ReplaceAvailabilityParams{
		Principal: h.mentor.Principal(),
		MentorID:  h.mentor.ID,
		Slots: []application.SlotInput{
			{DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"},
			{DayOfWeek: 8, StartTime: "11:00", EndTime: "10:00"},
		},
	})
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "slots[1].day_of_week")
	assert.Contains(t, vErr.FieldErrors, "slots[1].end_time")

	stored, err := h.services.Availability.GetAvailability(ctx, h.mentor.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1, "the original window survives a rejected replacement")
	assert.Equal(t, 1, stored[0].DayOfWeek)
}

func TestReplaceAvailabilityAuthorization(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	other := testfixtures.NewMentorFixture()

	_, err := h.services.Availability.ReplaceAvailability(ctx, application.ReplaceAvailabilityParams{
		Principal: other.Principal(),
		MentorID:  h.mentor.ID,
	})
	assert.ErrorIs(t, err, application.ErrForbidden)

	cleared, err := h.services.Availability.ReplaceAvailability(ctx, application.ReplaceAvailabilityParams{
		Principal: testfixtures.Admin(),
		MentorID:  h.mentor.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, cleared, "an empty list clears the schedule")

	_, err = h.services.Availability.ReplaceAvailability(ctx, application.ReplaceAvailabilityParams{
		Principal: testfixtures.Admin(),
		MentorID:  "mentor-missing",
	})
	assert.ErrorIs(t, err, application.ErrNotFound)
}

func TestOpenWindowsSubtractsBookings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.mustBook(t, "10:00", "11:00")

	open, err := h.services.Availability.OpenWindows(ctx, application.OpenWindowsParams{
		MentorID: h.mentor.ID,
		From:     "2024-03-18",
		To:       "2024-03-25",
	})
	require.NoError(t, err)

	var got []string
	for _, occ := range open {
		got = append(got, occ.Date.String()+" "+occ.Interval.Start.Clock()+"-"+occ.Interval.End.Clock())
	}
	assert.Equal(t, []string{
		"2024-03-18 09:00-10:00",
		"2024-03-18 11:00-12:00",
		"2024-03-25 09:00-12:00",
	}, got)

	_, err = h.services.Availability.OpenWindows(ctx, application.OpenWindowsParams{
		MentorID: h.mentor.ID,
		From:     "2024-03-25",
		To:       "2024-03-18",
	})
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.FieldErrors, "to")
}
