package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/testfixtures"
)

func TestNearbyMentors(t *testing.T) {
	store := testfixtures.NewSQLiteStore(t)
	services := testfixtures.NewServiceFactory().NewServices(store)

	// Tokyo Station, with mentors roughly 1 km, 6.5 km and 29 km away.
	nearby := testfixtures.NewMentorFixture(testfixtures.WithMentorLocation(35.6812, 139.7773))
	medium := testfixtures.NewMentorFixture(testfixtures.WithMentorLocation(35.6580, 139.7016), testfixtures.WithMentorEnglishLevel("native"))
	far := testfixtures.NewMentorFixture(testfixtures.WithMentorLocation(35.4437, 139.6380))
	inactive := testfixtures.NewMentorFixture(testfixtures.WithMentorLocation(35.6812, 139.7671), testfixtures.WithMentorStatus(persistence.AccountInactive))
	online := testfixtures.NewMentorFixture()
	testfixtures.Seed(t, store,
		nearby.Persistence(), medium.Persistence(), far.Persistence(), inactive.Persistence(), online.Persistence(),
		testfixtures.NewSlot(medium.ID, 2, "18:00", "21:00"),
		testfixtures.NewSlot(nearby.ID, 2, "09:00", "12:00"),
	)

	search := application.NearbyMentorsParams{Latitude: 35.6812, Longitude: 139.7671, RadiusKM: 10}
	hits, err := services.Directory.NearbyMentors(context.Background(), search)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, nearby.ID, hits[0].Mentor.ID)
	assert.Equal(t, medium.ID, hits[1].Mentor.ID)
	assert.Less(t, hits[0].DistanceKM, hits[1].DistanceKM)
	assert.InDelta(t, 0.9, hits[0].DistanceKM, 0.1)

	search.EnglishLevel = "native"
	hits, err = services.Directory.NearbyMentors(context.Background(), search)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, medium.ID, hits[0].Mentor.ID)

	evening := application.NearbyMentorsParams{
		Latitude: 35.6812, Longitude: 139.7671, RadiusKM: 10,
		DayOfWeek: 2, From: "19:00", To: "20:00",
	}
	hits, err = services.Directory.NearbyMentors(context.Background(), evening)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, medium.ID, hits[0].Mentor.ID)
}

func TestNearbyMentorsValidation(t *testing.T) {
	services := testfixtures.NewServiceFactory().NewServices(testfixtures.NewSQLiteStore(t))

	_, err := services.Directory.NearbyMentors(context.Background(), application.NearbyMentorsParams{
		Latitude:  91,
		Longitude: 139,
		RadiusKM:  20,
		DayOfWeek: 9,
	})
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)
	for _, field := range []string{"latitude", "radius_km", "day_of_week"} {
		assert.Contains(t, vErr.FieldErrors, field)
	}
}

func TestSetMentorStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.services.Directory.SetMentorStatus(ctx, application.SetMentorStatusParams{
		Principal: h.mentor.Principal(),
		MentorID:  h.mentor.ID,
		Status:    "inactive",
	})
	assert.ErrorIs(t, err, application.ErrForbidden)

	mentor, err := h.services.Directory.SetMentorStatus(ctx, application.SetMentorStatusParams{
		Principal: testfixtures.Admin(),
		MentorID:  h.mentor.ID,
		Status:    "Inactive",
	})
	require.NoError(t, err)
	assert.Equal(t, persistence.AccountInactive, mentor.Status)

	_, err = h.services.Directory.SetMentorStatus(ctx, application.SetMentorStatusParams{
		Principal: testfixtures.Admin(),
		MentorID:  h.mentor.ID,
		Status:    "suspended",
	})
	var vErr *application.ValidationError
	require.ErrorAs(t, err, &vErr)

	_, err = h.services.Directory.SetMentorStatus(ctx, application.SetMentorStatusParams{
		Principal: testfixtures.Admin(),
		MentorID:  "mentor-missing",
		Status:    "active",
	})
	assert.ErrorIs(t, err, application.ErrNotFound)
}
