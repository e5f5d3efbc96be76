// File: /controllers/activity_controller.go
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripweaver-api/models"
	"tripweaver-api/utils"
)

type ActivityController struct {
	db *gorm.DB
}

func NewActivityController(db *gorm.DB) *ActivityController {
	return &ActivityController{db: db}
}

type ActivityRequest struct {
	Title        string     `json:"title" binding:"required,max=255"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	StartAt      *time.Time `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	ExternalLink *string    `json:"external_link"`
	Cost         *float64   `json:"cost"`
	Currency     string     `json:"currency"`
	Category     string     `json:"category"`
	Latitude     *float64   `json:"latitude"`
	Longitude    *float64   `json:"longitude"`
}

func (ac *ActivityController) CreateActivity(c *gin.Context) {
	step, ok := ac.loadOwnedStep(c, c.Param("id"))
	if !ok {
		return
	}

	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if req.StartAt != nil && req.EndAt != nil && req.EndAt.Before(*req.StartAt) {
		utils.HandleError(c, utils.NewValidationError("end_at must not be before start_at"))
		return
	}
	req.StartAt, req.EndAt = clampToStepWindow(step, req.StartAt, req.EndAt)

	activity := models.Activity{
		ID:           uuid.New().String(),
		StepID:       step.ID,
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		ExternalLink: req.ExternalLink,
		Cost:         req.Cost,
		Currency:     defaultCurrency(req.Currency),
		Category:     req.Category,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
	}
	if err := ac.db.Create(&activity).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to create activity")
		return
	}

	utils.SendCreated(c, "Activity created", activity)
}

func (ac *ActivityController) UpdateActivity(c *gin.Context) {
	activity, step, ok := ac.loadOwnedActivity(c)
	if !ok {
		return
	}

	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if req.StartAt != nil && req.EndAt != nil && req.EndAt.Before(*req.StartAt) {
		utils.HandleError(c, utils.NewValidationError("end_at must not be before start_at"))
		return
	}
	req.StartAt, req.EndAt = clampToStepWindow(step, req.StartAt, req.EndAt)

	activity.Title = req.Title
	activity.Description = req.Description
	activity.Location = req.Location
	activity.StartAt = req.StartAt
	activity.EndAt = req.EndAt
	activity.ExternalLink = req.ExternalLink
	activity.Cost = req.Cost
	activity.Currency = defaultCurrency(req.Currency)
	activity.Category = req.Category
	activity.Latitude = req.Latitude
	activity.Longitude = req.Longitude

	if err := ac.db.Save(activity).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to update activity")
		return
	}

	c.JSON(http.StatusOK, activity)
}

func (ac *ActivityController) DeleteActivity(c *gin.Context) {
	activity, _, ok := ac.loadOwnedActivity(c)
	if !ok {
		return
	}

	if err := ac.db.Delete(activity).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to delete activity")
		return
	}

	utils.SendSuccess(c, "Activity deleted successfully", nil)
}

// clampToStepWindow pulls an activity's timestamps into the step's date
// window. Activities on an undated step keep whatever times the client sent.
func clampToStepWindow(step *models.Step, startAt, endAt *time.Time) (*time.Time, *time.Time) {
	if step.StartDate == nil || step.EndDate == nil {
		return startAt, endAt
	}

	windowStart := step.StartDate.Time
	windowEnd := step.EndDate.AddDays(1).Time

	clamp := func(ts *time.Time) *time.Time {
		if ts == nil {
			return nil
		}
		if ts.Before(windowStart) {
			t := windowStart
			return &t
		}
		if !ts.Before(windowEnd) {
			t := windowEnd.Add(-time.Minute)
			return &t
		}
		return ts
	}
	return clamp(startAt), clamp(endAt)
}

func (ac *ActivityController) loadOwnedActivity(c *gin.Context) (*models.Activity, *models.Step, bool) {
	var activity models.Activity
	if err := ac.db.First(&activity, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.HandleError(c, utils.NewNotFoundError("activity"))
		} else {
			utils.SendError(c, http.StatusInternalServerError, "Failed to fetch activity")
		}
		return nil, nil, false
	}
	step, ok := ac.loadOwnedStep(c, activity.StepID)
	if !ok {
		return nil, nil, false
	}
	return &activity, step, true
}

func (ac *ActivityController) loadOwnedStep(c *gin.Context, stepID string) (*models.Step, bool) {
	var step models.Step
	if err := ac.db.First(&step, "id = ?", stepID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.HandleError(c, utils.NewNotFoundError("step"))
		} else {
			utils.SendError(c, http.StatusInternalServerError, "Failed to fetch step")
		}
		return nil, false
	}

	var trip models.Trip
	if err := ac.db.First(&trip, "id = ?", step.TripID).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch trip")
		return nil, false
	}
	if trip.UserID != c.GetString("user_id") {
		utils.SendError(c, http.StatusForbidden, "You do not have access to this trip")
		return nil, false
	}
	return &step, true
}
