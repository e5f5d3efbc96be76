// File: /controllers/accommodation_controller.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"tripweaver-api/models"
	"tripweaver-api/utils"
)

type AccommodationController struct {
	db *gorm.DB
}

func NewAccommodationController(db *gorm.DB) *AccommodationController {
	return &AccommodationController{db: db}
}

type AccommodationRequest struct {
	Title        string       `json:"title" binding:"required,max=255"`
	Location     string       `json:"location"`
	StartDate    *models.Date `json:"start_date"`
	EndDate      *models.Date `json:"end_date"`
	ExternalLink *string      `json:"external_link"`
}

func (ac *AccommodationController) CreateAccommodation(c *gin.Context) {
	step, ok := ac.loadOwnedStep(c, c.Param("id"))
	if !ok {
		return
	}

	var req AccommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(req.StartDate.Time) {
		utils.HandleError(c, utils.NewValidationError("end_date must not be before start_date"))
		return
	}

	accommodation := models.Accommodation{
		ID:           uuid.New().String(),
		StepID:       step.ID,
		Title:        req.Title,
		Location:     req.Location,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		ExternalLink: req.ExternalLink,
	}
	if err := ac.db.Create(&accommodation).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to create accommodation")
		return
	}

	utils.SendCreated(c, "Accommodation created", accommodation)
}

func (ac *AccommodationController) UpdateAccommodation(c *gin.Context) {
	accommodation, ok := ac.loadOwnedAccommodation(c)
	if !ok {
		return
	}

	var req AccommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(req.StartDate.Time) {
		utils.HandleError(c, utils.NewValidationError("end_date must not be before start_date"))
		return
	}

	accommodation.Title = req.Title
	accommodation.Location = req.Location
	accommodation.StartDate = req.StartDate
	accommodation.EndDate = req.EndDate
	accommodation.ExternalLink = req.ExternalLink

	if err := ac.db.Save(accommodation).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to update accommodation")
		return
	}

	c.JSON(http.StatusOK, accommodation)
}

func (ac *AccommodationController) DeleteAccommodation(c *gin.Context) {
	accommodation, ok := ac.loadOwnedAccommodation(c)
	if !ok {
		return
	}

	if err := ac.db.Delete(accommodation).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to delete accommodation")
		return
	}

	utils.SendSuccess(c, "Accommodation deleted successfully", nil)
}

func (ac *AccommodationController) loadOwnedAccommodation(c *gin.Context) (*models.Accommodation, bool) {
	var accommodation models.Accommodation
	if err := ac.db.First(&accommodation, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.HandleError(c, utils.NewNotFoundError("accommodation"))
		} else {
			utils.SendError(c, http.StatusInternalServerError, "Failed to fetch accommodation")
		}
		return nil, false
	}
	if _, ok := ac.loadOwnedStep(c, accommodation.StepID); !ok {
		return nil, false
	}
	return &accommodation, true
}

func (ac *AccommodationController) loadOwnedStep(c *gin.Context, stepID string) (*models.Step, bool) {
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
