package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/tutor-marketplace/internal/geo"
	"github.com/example/tutor-marketplace/internal/persistence"
	"github.com/example/tutor-marketplace/internal/scheduler"
)

const (
	minSearchRadiusKM = 1
	maxSearchRadiusKM = 15
)

// DirectoryService searches and administers mentor profiles.
type DirectoryService struct {
	deps Dependencies
}

// NewDirectoryService wires dependencies for directory operations.
func NewDirectoryService(deps Dependencies) *DirectoryService {
	return &DirectoryService{deps: deps.withDefaults()}
}

func (s *DirectoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.deps.Logger, "DirectoryService", operation, attrs...)
}

// NearbyMentors finds active in-person mentors within the radius, nearest
// first. With a day and a from/to range only mentors whose slots on that day
// intersect the range are kept.
func (s *DirectoryService) NearbyMentors(ctx context.Context, params NearbyMentorsParams) (hits []NearbyMentor, err error) {
	if s == nil {
		err = fmt.Errorf("DirectoryService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "NearbyMentors", "radius_km", params.RadiusKM)
	defer func() {
		s.deps.Metrics.ObserveOperation("directory", "nearby", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to search mentors", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.DebugContext(ctx, "mentor search finished", "hits", len(hits))
	}()

	origin := geo.Point{Latitude: params.Latitude, Longitude: params.Longitude}
	vErr := &ValidationError{}
	if params.Latitude < -90 || params.Latitude > 90 {
		vErr.add("latitude", "must be between -90 and 90")
	}
	if params.Longitude < -180 || params.Longitude > 180 {
		vErr.add("longitude", "must be between -180 and 180")
	}
	if params.RadiusKM < minSearchRadiusKM || params.RadiusKM > maxSearchRadiusKM {
		vErr.add("radius_km", fmt.Sprintf("must be between %d and %d", minSearchRadiusKM, maxSearchRadiusKM))
	}
	if params.DayOfWeek != 0 && (params.DayOfWeek < 1 || params.DayOfWeek > 7) {
		vErr.add("day_of_week", "must be between 1 and 7")
	}
	var window scheduler.Interval
	filterByTime := params.DayOfWeek != 0 && params.From != "" && params.To != ""
	if filterByTime {
		from, okFrom := parseTimeField("from", params.From, vErr)
		to, okTo := parseTimeField("to", params.To, vErr)
		if okFrom && okTo {
			if from >= to {
				vErr.add("to", "must be after from")
			}
			window = scheduler.Interval{Start: from, End: to}
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.deps.Store.WithinReadOnly(ctx, func(ctx context.Context, tx persistence.Tx) error {
		candidates, err := tx.ListMentors(ctx, persistence.MentorFilter{
			Status:         persistence.AccountActive,
			EnglishLevel:   strings.TrimSpace(params.EnglishLevel),
			OffersInPerson: true,
			HasCoordinates: true,
		})
		if err != nil {
			return err
		}
		hits = hits[:0]
		for _, mentor := range candidates {
			if mentor.Latitude == nil || mentor.Longitude == nil {
				continue
			}
			distance := geo.RoundKM(geo.DistanceKM(origin, geo.Point{Latitude: *mentor.Latitude, Longitude: *mentor.Longitude}))
			if distance > params.RadiusKM {
				continue
			}
			if filterByTime {
				slots, err := tx.ListAvailability(ctx, mentor.ID, params.DayOfWeek)
				if err != nil {
					return err
				}
				if !anySlotIntersects(slots, window) {
					continue
				}
			}
			hits = append(hits, NearbyMentor{Mentor: mentor, DistanceKM: distance})
		}
		return nil
	})
	if err != nil {
		hits = nil
		err = mapRepoError("nearby mentors", err)
		return
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].DistanceKM != hits[j].DistanceKM {
			return hits[i].DistanceKM < hits[j].DistanceKM
		}
		return hits[i].Mentor.ID < hits[j].Mentor.ID
	})
	return
}

func anySlotIntersects(slots []persistence.AvailabilitySlot, window scheduler.Interval) bool {
	for _, slot := range slots {
		if slot.StartTime < window.End && slot.EndTime > window.Start {
			return true
		}
	}
	return false
}

// SetMentorStatus activates or deactivates a mentor. Mentors are never deleted.
func (s *DirectoryService) SetMentorStatus(ctx context.Context, params SetMentorStatusParams) (mentor persistence.Mentor, err error) {
	if s == nil {
		err = fmt.Errorf("DirectoryService is nil")
		return
	}

	started := time.Now()
	logger := s.loggerWith(ctx, "SetMentorStatus",
		"principal_id", params.Principal.UserID,
		"mentor_id", params.MentorID,
		"status", params.Status,
	)
	defer func() {
		s.deps.Metrics.ObserveOperation("directory", "set_status", outcome(err), time.Since(started))
		if err != nil {
			logger.ErrorContext(ctx, "failed to set mentor status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "mentor status updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrForbidden
		return
	}

	status := persistence.AccountStatus(strings.ToLower(strings.TrimSpace(params.Status)))
	vErr := &ValidationError{}
	requireID("mentor_id", params.MentorID, vErr)
	if !status.Valid() {
		vErr.add("status", "must be active or inactive")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = s.deps.Store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.Tx) error {
		if err := tx.UpdateMentorStatus(ctx, params.MentorID, status, s.deps.Now()); err != nil {
			return err
		}
		var err error
		mentor, err = tx.GetMentor(ctx, params.MentorID)
		return err
	})
	if err != nil {
		mentor = persistence.Mentor{}
		err = mapRepoError("set mentor status", err)
	}
	return
}
