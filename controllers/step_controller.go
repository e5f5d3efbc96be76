// File: /controllers/step_controller.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tripweaver-api/models"
	"tripweaver-api/repositories"
	"tripweaver-api/services"
	"tripweaver-api/utils"
)

type StepController struct {
	db        *gorm.DB
	steps     *repositories.StepRepository
	itinerary *services.ItineraryService
	geocoder  *services.GeocodingService
	log       *zap.SugaredLogger
}

func NewStepController(db *gorm.DB, steps *repositories.StepRepository, itinerary *services.ItineraryService,
	geocoder *services.GeocodingService, log *zap.SugaredLogger) *StepController {
	return &StepController{
		db:        db,
		steps:     steps,
		itinerary: itinerary,
		geocoder:  geocoder,
		log:       log,
	}
}

type CreateStepRequest struct {
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Location      string       `json:"location" binding:"required,max=255"`
	Latitude      *float64     `json:"latitude"`
	Longitude     *float64     `json:"longitude"`
	StartDate     *models.Date `json:"start_date"`
	Nights        *int         `json:"nights"`
	TransportMode string       `json:"transport_mode"`

	// Position: at_start, insert_after_id, or the end by default.
	AtStart       bool   `json:"at_start"`
	InsertAfterID string `json:"insert_after_id"`
}

type UpdateStepRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	Location      *string  `json:"location"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	TransportMode *string  `json:"transport_mode"`
}

type UpdateStepScheduleRequest struct {
	StartDate *models.Date `json:"start_date"`
	Nights    *int         `json:"nights"`
}

type ReorderRequest struct {
	Steps []repositories.StepOrderPair `json:"steps" binding:"required,dive"`
}

func (sc *StepController) CreateStep(c *gin.Context) {
	trip, ok := sc.loadOwnedTrip(c, c.Param("id"))
	if !ok {
		return
	}

	var req CreateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	if !utils.IsValidNights(req.Nights) {
		utils.HandleError(c, utils.NewValidationError("nights must be a non-negative number"))
		return
	}
	if req.Latitude != nil && !utils.IsValidLatitude(*req.Latitude) ||
		req.Longitude != nil && !utils.IsValidLongitude(*req.Longitude) {
		utils.HandleError(c, utils.NewValidationError("invalid coordinates"))
		return
	}

	transportMode := models.TransportMode(req.TransportMode)
	if req.TransportMode == "" {
		transportMode = models.TransportCar
	}
	if !transportMode.Valid() {
		utils.HandleError(c, utils.NewValidationError("invalid transport mode"))
		return
	}

	step := models.Step{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		StartDate:     req.StartDate,
		EndDate:       services.ComputeEndDate(req.StartDate, req.Nights),
		Nights:        req.Nights,
		TransportMode: transportMode,
	}
	if step.HasCoordinates() {
		if info := sc.geocoder.ResolveCountry(c.Request.Context(), *step.Latitude, *step.Longitude); info != nil {
			step.Country = &info.Name
			step.CountryCode = &info.Code
		}
	}

	err := sc.steps.Insert(trip.ID, &step, repositories.InsertPosition{
		AtStart:     req.AtStart,
		AfterStepID: req.InsertAfterID,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	sc.cascadeWholeTrip(c, trip)

	var created models.Step
	if err := sc.db.First(&created, "id = ?", step.ID).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch step")
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (sc *StepController) UpdateStep(c *gin.Context) {
	step, trip, ok := sc.loadOwnedStep(c)
	if !ok {
		return
	}

	var req UpdateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.TransportMode != nil {
		mode := models.TransportMode(*req.TransportMode)
		if !mode.Valid() {
			utils.HandleError(c, utils.NewValidationError("invalid transport mode"))
			return
		}
		updates["transport_mode"] = mode
	}

	coordsChanged := false
	if req.Latitude != nil && req.Longitude != nil {
		if !utils.IsValidLatitude(*req.Latitude) || !utils.IsValidLongitude(*req.Longitude) {
			utils.HandleError(c, utils.NewValidationError("invalid coordinates"))
			return
		}
		updates["latitude"] = *req.Latitude
		updates["longitude"] = *req.Longitude
		coordsChanged = true

		if info := sc.geocoder.ResolveCountry(c.Request.Context(), *req.Latitude, *req.Longitude); info != nil {
			updates["country"] = info.Name
			updates["country_code"] = info.Code
		} else {
			updates["country"] = nil
			updates["country_code"] = nil
		}
	}

	if len(updates) > 0 {
		if err := sc.db.Model(&models.Step{}).Where("id = ?", step.ID).Updates(updates).Error; err != nil {
			utils.SendError(c, http.StatusInternalServerError, "Failed to update step")
			return
		}
	}

	// Geography or transport changes only affect the legs, not the dates.
	if coordsChanged || req.TransportMode != nil {
		if err := sc.itinerary.RecalcDistances(c.Request.Context(), trip); err != nil {
			sc.log.Errorw("failed to recalc distances", "trip_id", trip.ID, "error", err)
		}
	}

	var updated models.Step
	if err := sc.db.First(&updated, "id = ?", step.ID).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch step")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UpdateStepSchedule changes the step's start date and nights, then cascades
// the change through every later step.
func (sc *StepController) UpdateStepSchedule(c *gin.Context) {
	step, trip, ok := sc.loadOwnedStep(c)
	if !ok {
		return
	}

	var req UpdateStepScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	err := sc.itinerary.UpdateStepSchedule(c.Request.Context(), trip, step, services.StepScheduleUpdate{
		StartDate: req.StartDate,
		Nights:    req.Nights,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var steps []models.Step
	if err := sc.db.Where("trip_id = ?", trip.ID).Order("`order` ASC").Find(&steps).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch steps")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"start_date": trip.StartDate,
		"end_date":   trip.EndDate,
		"steps":      steps,
	})
}

func (sc *StepController) DeleteStep(c *gin.Context) {
	step, trip, ok := sc.loadOwnedStep(c)
	if !ok {
		return
	}

	if err := sc.steps.Delete(step); err != nil {
		utils.HandleError(c, err)
		return
	}

	sc.cascadeWholeTrip(c, trip)

	utils.SendSuccess(c, "Step deleted successfully", nil)
}

func (sc *StepController) MoveStepUp(c *gin.Context) {
	step, trip, ok := sc.loadOwnedStep(c)
	if !ok {
		return
	}

	if err := sc.steps.MoveUp(step); err != nil {
		utils.HandleError(c, err)
		return
	}

	sc.cascadeWholeTrip(c, trip)
	sc.respondWithSteps(c, trip.ID)
}

func (sc *StepController) MoveStepDown(c *gin.Context) {
	step, trip, ok := sc.loadOwnedStep(c)
	if !ok {
		return
	}

	if err := sc.steps.MoveDown(step); err != nil {
		utils.HandleError(c, err)
		return
	}

	sc.cascadeWholeTrip(c, trip)
	sc.respondWithSteps(c, trip.ID)
}

func (sc *StepController) ReorderSteps(c *gin.Context) {
	trip, ok := sc.loadOwnedTrip(c, c.Param("id"))
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	if err := sc.steps.BulkReorder(trip.ID, req.Steps); err != nil {
		utils.HandleError(c, err)
		return
	}

	sc.cascadeWholeTrip(c, trip)
	sc.respondWithSteps(c, trip.ID)
}

// cascadeWholeTrip reruns dates, aggregates and distances after an ordering
// mutation. Failures are logged: the mutation itself already committed.
func (sc *StepController) cascadeWholeTrip(c *gin.Context, trip *models.Trip) {
	if _, err := sc.itinerary.RescheduleAllFromFirst(c.Request.Context(), trip, nil); err != nil {
		sc.log.Errorw("failed to reschedule trip", "trip_id", trip.ID, "error", err)
	}
}

func (sc *StepController) respondWithSteps(c *gin.Context, tripID string) {
	var steps []models.Step
	if err := sc.db.Where("trip_id = ?", tripID).Order("`order` ASC").Find(&steps).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch steps")
		return
	}
	c.JSON(http.StatusOK, gin.H{"steps": steps})
}

func (sc *StepController) loadOwnedTrip(c *gin.Context, id string) (*models.Trip, bool) {
	var trip models.Trip
	if err := sc.db.First(&trip, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.HandleError(c, utils.NewNotFoundError("trip"))
		} else {
			utils.SendError(c, http.StatusInternalServerError, "Failed to fetch trip")
		}
		return nil, false
	}
	if trip.UserID != c.GetString("user_id") {
		utils.SendError(c, http.StatusForbidden, "You do not have access to this trip")
		return nil, false
	}
	return &trip, true
}

func (sc *StepController) loadOwnedStep(c *gin.Context) (*models.Step, *models.Trip, bool) {
	var step models.Step
	if err := sc.db.First(&step, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.HandleError(c, utils.NewNotFoundError("step"))
		} else {
			utils.SendError(c, http.StatusInternalServerError, "Failed to fetch step")
		}
		return nil, nil, false
	}

	var trip models.Trip
	if err := sc.db.First(&trip, "id = ?", step.TripID).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch trip")
		return nil, nil, false
	}
	if trip.UserID != c.GetString("user_id") {
		utils.SendError(c, http.StatusForbidden, "You do not have access to this trip")
		return nil, nil, false
	}
	return &step, &trip, true
}
