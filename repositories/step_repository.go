// File: /repositories/step_repository.go
package repositories

import (
	"errors"

	"gorm.io/gorm"

	"tripweaver-api/models"
	"tripweaver-api/utils"
)

// StepRepository is the ordering store for a trip's steps. It maintains the
// invariant that order values form a dense 1..N sequence; every mutation runs
// in a single transaction so intermediate renumbering states are never visible
// to concurrent readers.
type StepRepository struct {
	db *gorm.DB
}

func NewStepRepository(db *gorm.DB) *StepRepository {
	return &StepRepository{db: db}
}

// InsertPosition says where a new step goes: at the start, directly after an
// existing step, or at the end (the default).
type InsertPosition struct {
	AtStart     bool
	AfterStepID string
}

// StepOrderPair is one entry of a bulk reorder request.
type StepOrderPair struct {
	StepID string `json:"step_id" binding:"required"`
	Order  int    `json:"order" binding:"required,gte=1"`
}

// ListByTrip returns the trip's steps in ascending order.
func (r *StepRepository) ListByTrip(tripID string) ([]models.Step, error) {
	var steps []models.Step
	err := r.db.Where("trip_id = ?", tripID).Order("`order` ASC").Find(&steps).Error
	return steps, err
}

// Insert adds the step at the requested position, shifting the order of every
// step at or after it up by one first.
func (r *StepRepository) Insert(tripID string, step *models.Step, pos InsertPosition) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		switch {
		case pos.AfterStepID != "":
			var after models.Step
			err := tx.Where("trip_id = ? AND id = ?", tripID, pos.AfterStepID).First(&after).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return utils.NewNotFoundError("step to insert after")
				}
				return err
			}

			if err := tx.Model(&models.Step{}).
				Where("trip_id = ? AND `order` > ?", tripID, after.Order).
				UpdateColumn("order", gorm.Expr("`order` + 1")).Error; err != nil {
				return err
			}
			step.Order = after.Order + 1

		case pos.AtStart:
			if err := tx.Model(&models.Step{}).
				Where("trip_id = ?", tripID).
				UpdateColumn("order", gorm.Expr("`order` + 1")).Error; err != nil {
				return err
			}
			step.Order = 1

		default:
			var maxOrder int
			if err := tx.Model(&models.Step{}).
				Where("trip_id = ?", tripID).
				Select("COALESCE(MAX(`order`), 0)").
				Scan(&maxOrder).Error; err != nil {
				return err
			}
			step.Order = maxOrder + 1
		}

		step.TripID = tripID
		return tx.Create(step).Error
	})
}

// Delete removes the step and closes the gap in the order sequence.
// The trip's sole remaining step and the destination step are protected;
// both checks happen before any mutation.
func (r *StepRepository) Delete(step *models.Step) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if step.IsDestination {
			return utils.NewInvariantViolationError("the destination step cannot be deleted")
		}

		var count int64
		if err := tx.Model(&models.Step{}).Where("trip_id = ?", step.TripID).Count(&count).Error; err != nil {
			return err
		}
		if count <= 1 {
			return utils.NewInvariantViolationError("a trip must keep at least one step")
		}

		// Children first: not every backing database enforces the cascade.
		if err := tx.Where("step_id = ?", step.ID).Delete(&models.Activity{}).Error; err != nil {
			return err
		}
		if err := tx.Where("step_id = ?", step.ID).Delete(&models.Accommodation{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Step{}, "id = ?", step.ID).Error; err != nil {
			return err
		}

		return tx.Model(&models.Step{}).
			Where("trip_id = ? AND `order` > ?", step.TripID, step.Order).
			UpdateColumn("order", gorm.Expr("`order` - 1")).Error
	})
}

// MoveUp swaps the step with its predecessor. No-op when already first.
func (r *StepRepository) MoveUp(step *models.Step) error {
	return r.swapWithNeighbor(step, step.Order-1)
}

// MoveDown swaps the step with its successor. No-op when already last.
func (r *StepRepository) MoveDown(step *models.Step) error {
	return r.swapWithNeighbor(step, step.Order+1)
}

func (r *StepRepository) swapWithNeighbor(step *models.Step, neighborOrder int) error {
	if neighborOrder < 1 {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var neighbor models.Step
		err := tx.Where("trip_id = ? AND `order` = ?", step.TripID, neighborOrder).First(&neighbor).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Already at the edge.
				return nil
			}
			return err
		}

		if err := tx.Model(&models.Step{}).Where("id = ?", neighbor.ID).
			UpdateColumn("order", step.Order).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Step{}).Where("id = ?", step.ID).
			UpdateColumn("order", neighborOrder).Error; err != nil {
			return err
		}
		step.Order = neighborOrder
		return nil
	})
}

// BulkReorder applies explicit (step id, order) pairs atomically. Ids that do
// not belong to the trip are filtered out rather than rejected, since the
// client may race a delete against a drag-and-drop reorder.
func (r *StepRepository) BulkReorder(tripID string, pairs []StepOrderPair) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Step{}).Where("trip_id = ?", tripID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}

		members := make(map[string]bool, len(ids))
		for _, id := range ids {
			members[id] = true
		}

		for _, pair := range pairs {
			if !members[pair.StepID] {
				continue
			}
			if err := tx.Model(&models.Step{}).Where("id = ?", pair.StepID).
				UpdateColumn("order", pair.Order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
