// File: /services/itinerary_service.go
package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tripweaver-api/models"
	"tripweaver-api/utils"
)

// DirectionsClient is the routing collaborator: travel distance and duration
// between two coordinate pairs for a given profile. Implementations return nil
// on any failure (no route, network error, rate limit), never an error.
type DirectionsClient interface {
	GetDistanceAndDuration(ctx context.Context, fromLat, fromLng, toLat, toLng float64, profile string) *RouteResult
}

// ItineraryService owns the schedule cascade, the trip aggregate dates and the
// inter-step distance recalculation.
type ItineraryService struct {
	db      *gorm.DB
	routing DirectionsClient
	log     *zap.SugaredLogger
}

func NewItineraryService(db *gorm.DB, routing DirectionsClient, log *zap.SugaredLogger) *ItineraryService {
	return &ItineraryService{
		db:      db,
		routing: routing,
		log:     log,
	}
}

// StepScheduleUpdate is the command for changing a step's schedule. Both
// fields are authoritative: nil clears the value.
type StepScheduleUpdate struct {
	StartDate *models.Date
	Nights    *int
}

// RescheduleResult reports what a whole-trip reschedule did.
type RescheduleResult struct {
	Rescheduled bool `json:"rescheduled"`
}

// ComputeEndDate is the one rule tying a step's window together:
// end = start + nights when both are known, null otherwise.
func ComputeEndDate(start *models.Date, nights *int) *models.Date {
	if start == nil || nights == nil {
		return nil
	}
	end := start.AddDays(*nights)
	return &end
}

// UpdateStepSchedule persists a schedule change on the step and cascades it
// through all later steps. The anchor's new window lands with the cascade's
// own writes, inside the same transaction.
func (s *ItineraryService) UpdateStepSchedule(ctx context.Context, trip *models.Trip, step *models.Step, upd StepScheduleUpdate) error {
	if !utils.IsValidNights(upd.Nights) {
		return utils.NewValidationError("nights must be a non-negative number")
	}

	step.StartDate = upd.StartDate
	step.Nights = upd.Nights

	return s.RescheduleFrom(ctx, trip, step)
}

// RescheduleFrom recomputes the anchor's end date and then overwrites the
// start/end dates of every later step, carrying the previous end date forward.
// When a step's nights are unknown the chain breaks and every remaining step
// is cleared to null. Running it twice with the same inputs is a no-op the
// second time.
//
// The read-walk-persist and the trip aggregate refresh run in one transaction,
// so two concurrent cascades against the same trip cannot interleave their
// window writes. Distance recalculation follows after commit; it talks to the
// routing collaborator and must not hold the transaction open.
func (s *ItineraryService) RescheduleFrom(ctx context.Context, trip *models.Trip, anchor *models.Step) error {
	var steps []models.Step

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		steps, err = loadSteps(tx, trip.ID)
		if err != nil {
			return err
		}

		anchorIdx := -1
		for i := range steps {
			if steps[i].ID == anchor.ID {
				anchorIdx = i
				break
			}
		}
		if anchorIdx == -1 {
			// Caller bug, not a user-facing path.
			return utils.NewInternalError(fmt.Sprintf("step %s does not belong to trip %s", anchor.ID, trip.ID))
		}

		// The anchor keeps its own start date; only its end date is derived.
		steps[anchorIdx].StartDate = anchor.StartDate
		steps[anchorIdx].Nights = anchor.Nights
		steps[anchorIdx].EndDate = ComputeEndDate(anchor.StartDate, anchor.Nights)
		if err := persistWindow(tx, &steps[anchorIdx]); err != nil {
			return err
		}
		anchor.EndDate = steps[anchorIdx].EndDate

		cursor := steps[anchorIdx].EndDate
		for i := anchorIdx + 1; i < len(steps); i++ {
			step := &steps[i]

			if cursor == nil {
				step.StartDate = nil
				step.EndDate = nil
			} else {
				start := *cursor
				step.StartDate = &start
				step.EndDate = ComputeEndDate(step.StartDate, step.Nights)
				cursor = step.EndDate
			}

			if err := persistWindow(tx, step); err != nil {
				return err
			}
		}

		return s.refreshTripDates(tx, trip, steps)
	})
	if err != nil {
		return err
	}

	return s.recalcDistances(ctx, steps)
}

// RescheduleAllFromFirst runs the cascade with the first step as anchor. An
// explicit anchorDate overrides the first step's start date. With no anchor
// date and an undated first step there is nothing to rebuild the chain from:
// the call normalizes inconsistent end dates, refreshes the aggregates and
// reports Rescheduled=false.
func (s *ItineraryService) RescheduleAllFromFirst(ctx context.Context, trip *models.Trip, anchorDate *models.Date) (*RescheduleResult, error) {
	steps, err := loadSteps(s.db, trip.ID)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return &RescheduleResult{Rescheduled: false}, nil
	}

	first := &steps[0]
	if anchorDate != nil {
		first.StartDate = anchorDate
	}

	if first.StartDate == nil {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			steps, err = loadSteps(tx, trip.ID)
			if err != nil {
				return err
			}
			for i := range steps {
				steps[i].EndDate = ComputeEndDate(steps[i].StartDate, steps[i].Nights)
				if err := persistWindow(tx, &steps[i]); err != nil {
					return err
				}
			}
			return s.refreshTripDates(tx, trip, steps)
		})
		if err != nil {
			return nil, err
		}
		if err := s.recalcDistances(ctx, steps); err != nil {
			return nil, err
		}
		return &RescheduleResult{Rescheduled: false}, nil
	}

	if err := s.RescheduleFrom(ctx, trip, first); err != nil {
		return nil, err
	}
	return &RescheduleResult{Rescheduled: true}, nil
}

// RefreshTripDates syncs the trip's derived start/end dates with its steps.
func (s *ItineraryService) RefreshTripDates(trip *models.Trip) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		steps, err := loadSteps(tx, trip.ID)
		if err != nil {
			return err
		}
		return s.refreshTripDates(tx, trip, steps)
	})
}

func (s *ItineraryService) refreshTripDates(tx *gorm.DB, trip *models.Trip, steps []models.Step) error {
	var start, end *models.Date
	for i := range steps {
		if sd := steps[i].StartDate; sd != nil {
			if start == nil || sd.Before(start.Time) {
				start = sd
			}
		}
		if ed := steps[i].EndDate; ed != nil {
			if end == nil || ed.After(end.Time) {
				end = ed
			}
		}
	}

	trip.StartDate = start
	trip.EndDate = end

	return tx.Model(&models.Trip{}).Where("id = ?", trip.ID).
		Updates(map[string]interface{}{
			"start_date": trip.StartDate,
			"end_date":   trip.EndDate,
		}).Error
}

// RecalcDistances refreshes distance_to_next/duration_to_next for every step
// of the trip. One leg's failure never blocks the others, and routing errors
// degrade to cleared fields: distance data is an enhancement, not a
// correctness requirement.
func (s *ItineraryService) RecalcDistances(ctx context.Context, trip *models.Trip) error {
	steps, err := loadSteps(s.db, trip.ID)
	if err != nil {
		return err
	}
	return s.recalcDistances(ctx, steps)
}

func (s *ItineraryService) recalcDistances(ctx context.Context, steps []models.Step) error {
	for i := range steps {
		step := &steps[i]

		if i+1 >= len(steps) {
			// Last step has no leg; only write when something was set.
			if step.DistanceToNext != nil || step.DurationToNext != nil {
				if err := s.persistLeg(step, nil, nil); err != nil {
					return err
				}
			}
			continue
		}

		next := &steps[i+1]
		if step.HasCoordinates() && next.HasCoordinates() && s.routing != nil {
			profile := ProfileForTransportMode(step.TransportMode)
			result := s.routing.GetDistanceAndDuration(ctx,
				*step.Latitude, *step.Longitude,
				*next.Latitude, *next.Longitude,
				profile,
			)
			if result != nil {
				if err := s.persistLeg(step, &result.DistanceKm, &result.DurationMinutes); err != nil {
					return err
				}
				continue
			}
			s.log.Debugw("no route for leg, clearing distance",
				"step_id", step.ID, "profile", profile)
		}

		if err := s.persistLeg(step, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

// BuildSchedule derives the day-by-day itinerary from the trip's date range,
// assigning each day the first step whose window covers it.
func (s *ItineraryService) BuildSchedule(trip *models.Trip, steps []models.Step) []models.ScheduleDay {
	if trip.StartDate == nil || trip.EndDate == nil {
		return []models.ScheduleDay{}
	}

	var days []models.ScheduleDay
	for d := *trip.StartDate; !d.After(trip.EndDate.Time); d = d.AddDays(1) {
		day := models.ScheduleDay{Date: d}
		for i := range steps {
			step := &steps[i]
			if step.StartDate == nil || step.EndDate == nil {
				continue
			}
			if !d.Before(step.StartDate.Time) && !d.After(step.EndDate.Time) {
				day.StepID = &step.ID
				location := step.Location
				day.Location = &location
				break
			}
		}
		days = append(days, day)
	}
	return days
}

func loadSteps(tx *gorm.DB, tripID string) ([]models.Step, error) {
	var steps []models.Step
	err := tx.Where("trip_id = ?", tripID).Order("`order` ASC").Find(&steps).Error
	return steps, err
}

func persistWindow(tx *gorm.DB, step *models.Step) error {
	return tx.Model(&models.Step{}).Where("id = ?", step.ID).
		Updates(map[string]interface{}{
			"start_date": step.StartDate,
			"end_date":   step.EndDate,
			"nights":     step.Nights,
		}).Error
}

func (s *ItineraryService) persistLeg(step *models.Step, distanceKm *float64, durationMin *int) error {
	step.DistanceToNext = distanceKm
	step.DurationToNext = durationMin
	return s.db.Model(&models.Step{}).Where("id = ?", step.ID).
		Updates(map[string]interface{}{
			"distance_to_next": step.DistanceToNext,
			"duration_to_next": step.DurationToNext,
		}).Error
}
