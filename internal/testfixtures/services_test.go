package testfixtures

import (
	"context"
	"testing"

	"github.com/example/tutor-marketplace/internal/application"
)

func TestServiceFactoryWiresClockIDsAndMetrics(t *testing.T) {
	factory := NewServiceFactory()
	store := NewSQLiteStore(t)

	mentor := NewMentorFixture()
	Seed(t, store, mentor.Persistence())

	services := factory.NewServices(store)
	slots, err := services.Availability.ReplaceAvailability(context.Background(), application.ReplaceAvailabilityParams{
		Principal: mentor.Principal(),
		MentorID:  mentor.ID,
		Slots:     []application.SlotInput{{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"}},
	})
	if err != nil {
		t.Fatalf("ReplaceAvailability returned error: %v", err)
	}
	if len(slots) != 1 || slots[0].ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %#v", slots)
	}
	if !slots[0].CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), slots[0].CreatedAt)
	}

	last, ok := factory.Recorder.Last()
	if !ok || last != (Observation{Service: "availability", Operation: "replace", Outcome: "ok"}) {
		t.Fatalf("unexpected observation %#v", last)
	}
}
