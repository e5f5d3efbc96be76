// File: /controllers/trip_controller.go
package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tripweaver-api/models"
	"tripweaver-api/services"
	"tripweaver-api/utils"
)

type TripController struct {
	db           *gorm.DB
	itinerary    *services.ItineraryService
	geocoder     *services.GeocodingService
	locks        *services.LockService
	emailService *services.EmailService
	appURL       string
	log          *zap.SugaredLogger
}

func NewTripController(db *gorm.DB, itinerary *services.ItineraryService, geocoder *services.GeocodingService,
	locks *services.LockService, emailService *services.EmailService, appURL string, log *zap.SugaredLogger) *TripController {
	return &TripController{
		db:           db,
		itinerary:    itinerary,
		geocoder:     geocoder,
		locks:        locks,
		emailService: emailService,
		appURL:       appURL,
		log:          log,
	}
}

type CreateTripRequest struct {
	Title       string   `json:"title" binding:"required,max=100"`
	Description string   `json:"description"`
	Destination string   `json:"destination" binding:"required,max=100"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`

	// Optional departure point, seeded as a zero-night first step.
	StartLocation  string   `json:"start_location"`
	StartLatitude  *float64 `json:"start_latitude"`
	StartLongitude *float64 `json:"start_longitude"`

	StartDate     *models.Date `json:"start_date"`
	EndDate       *models.Date `json:"end_date"`
	Nights        *int         `json:"nights"`
	TransportMode string       `json:"transport_mode"`
	Budget        *float64     `json:"budget"`
	Currency      string       `json:"currency"`
	IsPublic      bool         `json:"is_public"`
}

type UpdateTripRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Budget      *float64 `json:"budget"`
	Currency    *string  `json:"currency"`
	IsPublic    *bool    `json:"is_public"`
}

type TripListItem struct {
	models.Trip
	StepsCount int64 `json:"steps_count"`
}

func (tc *TripController) GetTrips(c *gin.Context) {
	userID := c.GetString("user_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 12
	}
	search := c.Query("search")

	query := tc.db.Model(&models.Trip{}).Where("user_id = ?", userID)
	if search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"title LIKE ? OR id IN (SELECT trip_id FROM steps WHERE country LIKE ?)",
			like, like,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch trips")
		return
	}

	var trips []models.Trip
	if err := query.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` ASC")
	}).Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&trips).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch trips")
		return
	}

	items := make([]TripListItem, 0, len(trips))
	for _, trip := range trips {
		items = append(items, TripListItem{
			Trip:       trip,
			StepsCount: int64(len(trip.Steps)),
		})
	}

	utils.SendPaginated(c, items, page, limit, total)
}

func (tc *TripController) CreateTrip(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateTripRequest
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
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(req.StartDate.Time) {
		utils.HandleError(c, utils.NewValidationError("end_date must not be before start_date"))
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

	var user models.User
	if err := tc.db.First(&user, "id = ?", userID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "User not found")
		return
	}

	var tripCount int64
	tc.db.Model(&models.Trip{}).Where("user_id = ?", userID).Count(&tripCount)
	if tripCount >= int64(user.TripLimit()) {
		utils.HandleError(c, utils.NewInvariantViolationError(
			fmt.Sprintf("you have reached the limit of %d trips", user.TripLimit())))
		return
	}

	// Guard against a double-submitted create. When redis itself is down we
	// carry on without the lock rather than block trip creation entirely.
	lockKey := fmt.Sprintf("user:%s:create-trip", userID)
	release, err := tc.locks.Acquire(c.Request.Context(), lockKey, 5*time.Second)
	if err != nil {
		if errors.Is(err, services.ErrLockHeld) {
			utils.SendError(c, http.StatusTooManyRequests, "A trip is already being created")
			return
		}
		tc.log.Warnw("creation lock unavailable, proceeding without it", "error", err)
	} else {
		defer release()
	}

	startDate, endDate, nights := deriveTripWindow(req.StartDate, req.EndDate, req.Nights)

	trip := models.Trip{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      req.Budget,
		Currency:    defaultCurrency(req.Currency),
		IsPublic:    req.IsPublic,
	}

	destination := models.Step{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Location:      req.Destination,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		StartDate:     startDate,
		EndDate:       endDate,
		Nights:        nights,
		IsDestination: true,
		TransportMode: transportMode,
	}
	if destination.HasCoordinates() {
		if info := tc.geocoder.ResolveCountry(c.Request.Context(), *destination.Latitude, *destination.Longitude); info != nil {
			destination.Country = &info.Name
			destination.CountryCode = &info.Code
		}
	}

	err = tc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&trip).Error; err != nil {
			return err
		}

		order := 1
		if req.StartLocation != "" {
			zero := 0
			departure := models.Step{
				ID:            uuid.New().String(),
				TripID:        trip.ID,
				Order:         order,
				Title:         "Departure",
				Location:      req.StartLocation,
				Latitude:      req.StartLatitude,
				Longitude:     req.StartLongitude,
				StartDate:     startDate,
				EndDate:       startDate,
				Nights:        &zero,
				TransportMode: transportMode,
			}
			if err := tx.Create(&departure).Error; err != nil {
				return err
			}
			order++
		}

		destination.TripID = trip.ID
		destination.Order = order
		return tx.Create(&destination).Error
	})
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to create trip")
		return
	}

	if err := tc.itinerary.RefreshTripDates(&trip); err != nil {
		tc.log.Errorw("failed to refresh trip dates", "trip_id", trip.ID, "error", err)
	}
	if err := tc.itinerary.RecalcDistances(c.Request.Context(), &trip); err != nil {
		tc.log.Errorw("failed to recalc distances", "trip_id", trip.ID, "error", err)
	}

	tc.respondWithTrip(c, http.StatusCreated, trip.ID)
}

func (tc *TripController) GetTrip(c *gin.Context) {
	userID := c.GetString("user_id")

	trip, ok := tc.loadTrip(c, c.Param("id"))
	if !ok {
		return
	}
	if trip.UserID != userID && !trip.IsPublic {
		utils.SendError(c, http.StatusForbidden, "You do not have access to this trip")
		return
	}

	tc.respondWithTrip(c, http.StatusOK, trip.ID)
}

// GetPublicTrip serves shared trips without authentication. Private trips
// answer 404, not 403, so the route does not leak their existence.
func (tc *TripController) GetPublicTrip(c *gin.Context) {
	trip, ok := tc.loadTrip(c, c.Param("id"))
	if !ok {
		return
	}
	if !trip.IsPublic {
		utils.HandleError(c, utils.NewNotFoundError("trip"))
		return
	}

	tc.respondWithTrip(c, http.StatusOK, trip.ID)
}

func (tc *TripController) UpdateTrip(c *gin.Context) {
	trip, ok := tc.loadOwnedTrip(c)
	if !ok {
		return
	}

	var req UpdateTripRequest
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
	if req.Budget != nil {
		updates["budget"] = *req.Budget
	}
	if req.Currency != nil {
		updates["currency"] = defaultCurrency(*req.Currency)
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}

	if len(updates) > 0 {
		if err := tc.db.Model(&models.Trip{}).Where("id = ?", trip.ID).Updates(updates).Error; err != nil {
			utils.SendError(c, http.StatusInternalServerError, "Failed to update trip")
			return
		}
	}

	tc.respondWithTrip(c, http.StatusOK, trip.ID)
}

func (tc *TripController) DeleteTrip(c *gin.Context) {
	trip, ok := tc.loadOwnedTrip(c)
	if !ok {
		return
	}

	err := tc.db.Transaction(func(tx *gorm.DB) error {
		var stepIDs []string
		if err := tx.Model(&models.Step{}).Where("trip_id = ?", trip.ID).
			Pluck("id", &stepIDs).Error; err != nil {
			return err
		}
		if len(stepIDs) > 0 {
			if err := tx.Where("step_id IN ?", stepIDs).Delete(&models.Activity{}).Error; err != nil {
				return err
			}
			if err := tx.Where("step_id IN ?", stepIDs).Delete(&models.Accommodation{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("trip_id = ?", trip.ID).Delete(&models.Step{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Trip{}, "id = ?", trip.ID).Error
	})
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to delete trip")
		return
	}

	utils.SendSuccess(c, "Trip deleted successfully", nil)
}

// DuplicateTrip copies the trip with all its steps, activities and
// accommodations under a new id.
func (tc *TripController) DuplicateTrip(c *gin.Context) {
	userID := c.GetString("user_id")

	source, ok := tc.loadTrip(c, c.Param("id"))
	if !ok {
		return
	}
	if source.UserID != userID && !source.IsPublic {
		utils.SendError(c, http.StatusForbidden, "You do not have access to this trip")
		return
	}

	var copied models.Trip

	err := tc.db.Transaction(func(tx *gorm.DB) error {
		copied = *source
		copied.ID = uuid.New().String()
		copied.UserID = userID
		copied.Title = source.Title + " (copy)"
		copied.CreatedAt = time.Time{}
		copied.UpdatedAt = time.Time{}
		if err := tx.Create(&copied).Error; err != nil {
			return err
		}

		var steps []models.Step
		if err := tx.Where("trip_id = ?", source.ID).Order("`order` ASC").Find(&steps).Error; err != nil {
			return err
		}

		for _, step := range steps {
			oldStepID := step.ID
			step.ID = uuid.New().String()
			step.TripID = copied.ID
			step.CreatedAt = time.Time{}
			step.UpdatedAt = time.Time{}
			if err := tx.Create(&step).Error; err != nil {
				return err
			}

			var activities []models.Activity
			if err := tx.Where("step_id = ?", oldStepID).Find(&activities).Error; err != nil {
				return err
			}
			for _, activity := range activities {
				activity.ID = uuid.New().String()
				activity.StepID = step.ID
				activity.CreatedAt = time.Time{}
				activity.UpdatedAt = time.Time{}
				if err := tx.Create(&activity).Error; err != nil {
					return err
				}
			}

			var accommodations []models.Accommodation
			if err := tx.Where("step_id = ?", oldStepID).Find(&accommodations).Error; err != nil {
				return err
			}
			for _, accommodation := range accommodations {
				accommodation.ID = uuid.New().String()
				accommodation.StepID = step.ID
				accommodation.CreatedAt = time.Time{}
				accommodation.UpdatedAt = time.Time{}
				if err := tx.Create(&accommodation).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to duplicate trip")
		return
	}

	tc.respondWithTrip(c, http.StatusCreated, copied.ID)
}

type InviteRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (tc *TripController) InviteToTrip(c *gin.Context) {
	userID := c.GetString("user_id")

	trip, ok := tc.loadOwnedTrip(c)
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	var inviter models.User
	if err := tc.db.First(&inviter, "id = ?", userID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "User not found")
		return
	}

	tripURL := fmt.Sprintf("%s/trips/%s", tc.appURL, trip.ID)
	if err := tc.emailService.SendTripInvitation(req.Email, inviter.Name, trip.Title, tripURL); err != nil {
		tc.log.Warnw("failed to send trip invitation", "trip_id", trip.ID, "error", err)
		utils.SendError(c, http.StatusInternalServerError, "Failed to send invitation")
		return
	}

	utils.SendSuccess(c, "Invitation sent", nil)
}

// GetSchedule returns the derived day-by-day itinerary.
func (tc *TripController) GetSchedule(c *gin.Context) {
	userID := c.GetString("user_id")

	trip, ok := tc.loadTrip(c, c.Param("id"))
	if !ok {
		return
	}
	if trip.UserID != userID && !trip.IsPublic {
		utils.SendError(c, http.StatusForbidden, "You do not have access to this trip")
		return
	}

	var steps []models.Step
	if err := tc.db.Where("trip_id = ?", trip.ID).Order("`order` ASC").Find(&steps).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch steps")
		return
	}

	days := tc.itinerary.BuildSchedule(trip, steps)
	c.JSON(http.StatusOK, gin.H{
		"trip_id":    trip.ID,
		"start_date": trip.StartDate,
		"end_date":   trip.EndDate,
		"days":       days,
	})
}

type RescheduleRequest struct {
	StartDate *models.Date `json:"start_date"`
}

// RescheduleTrip reruns the whole cascade from the first step, optionally
// anchoring it on a new start date.
func (tc *TripController) RescheduleTrip(c *gin.Context) {
	trip, ok := tc.loadOwnedTrip(c)
	if !ok {
		return
	}

	var req RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	result, err := tc.itinerary.RescheduleAllFromFirst(c.Request.Context(), trip, req.StartDate)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var steps []models.Step
	if err := tc.db.Where("trip_id = ?", trip.ID).Order("`order` ASC").Find(&steps).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch steps")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rescheduled": result.Rescheduled,
		"start_date":  trip.StartDate,
		"end_date":    trip.EndDate,
		"steps":       steps,
	})
}

func (tc *TripController) loadTrip(c *gin.Context, id string) (*models.Trip, bool) {
	var trip models.Trip
	if err := tc.db.First(&trip, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.HandleError(c, utils.NewNotFoundError("trip"))
		} else {
			utils.SendError(c, http.StatusInternalServerError, "Failed to fetch trip")
		}
		return nil, false
	}
	return &trip, true
}

func (tc *TripController) loadOwnedTrip(c *gin.Context) (*models.Trip, bool) {
	trip, ok := tc.loadTrip(c, c.Param("id"))
	if !ok {
		return nil, false
	}
	if trip.UserID != c.GetString("user_id") {
		utils.SendError(c, http.StatusForbidden, "You do not have access to this trip")
		return nil, false
	}
	return trip, true
}

func (tc *TripController) respondWithTrip(c *gin.Context, status int, tripID string) {
	var trip models.Trip
	err := tc.db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` ASC")
	}).Preload("Steps.Activities").Preload("Steps.Accommodations").
		First(&trip, "id = ?", tripID).Error
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch trip")
		return
	}
	c.JSON(status, trip)
}

// deriveTripWindow fills in whichever of end date and nights is missing.
// A lone start date means a zero-night trip starting and ending that day.
func deriveTripWindow(start, end *models.Date, nights *int) (*models.Date, *models.Date, *int) {
	switch {
	case start != nil && end != nil:
		n := start.DaysUntil(*end)
		return start, end, &n
	case start != nil && nights != nil:
		e := start.AddDays(*nights)
		return start, &e, nights
	case start != nil:
		zero := 0
		return start, start, &zero
	default:
		return start, end, nights
	}
}

func defaultCurrency(currency string) string {
	if currency == "" {
		return "EUR"
	}
	return currency
}
