// File: /controllers/step_controller_test.go
package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tripweaver-api/models"
	"tripweaver-api/repositories"
	"tripweaver-api/services"
	"tripweaver-api/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection of the pool would get its own in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Trip{},
		&models.Step{},
		&models.Activity{},
		&models.Accommodation{},
	))
	return db
}

type stepTestEnv struct {
	router *gin.Engine
	db     *gorm.DB
	userID string
}

func newStepTestEnv(t *testing.T) *stepTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	log := zap.NewNop().Sugar()

	user := models.User{
		ID:       uuid.New().String(),
		Email:    uuid.New().String() + "@example.com",
		Name:     "Test User",
		Password: "secret",
	}
	require.NoError(t, db.Create(&user).Error)

	itinerary := services.NewItineraryService(db, nil, log)
	geocoder := services.NewGeocodingService("", log)
	steps := repositories.NewStepRepository(db)
	controller := NewStepController(db, steps, itinerary, geocoder, log)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", user.ID)
		c.Next()
	})
	router.POST("/trips/:id/steps", controller.CreateStep)
	router.POST("/trips/:id/steps/reorder", controller.ReorderSteps)
	router.PUT("/steps/:id", controller.UpdateStep)
	router.PUT("/steps/:id/schedule", controller.UpdateStepSchedule)
	router.DELETE("/steps/:id", controller.DeleteStep)
	router.POST("/steps/:id/move-up", controller.MoveStepUp)
	router.POST("/steps/:id/move-down", controller.MoveStepDown)

	return &stepTestEnv{router: router, db: db, userID: user.ID}
}

func (e *stepTestEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *stepTestEnv) seedTrip(t *testing.T, userID string) *models.Trip {
	t.Helper()

	trip := models.Trip{ID: uuid.New().String(), UserID: userID, Title: "Test Trip"}
	require.NoError(t, e.db.Create(&trip).Error)
	return &trip
}

func (e *stepTestEnv) seedStep(t *testing.T, tripID, location string, order int, destination bool) *models.Step {
	t.Helper()

	step := models.Step{
		ID:            uuid.New().String(),
		TripID:        tripID,
		Order:         order,
		Location:      location,
		IsDestination: destination,
		TransportMode: models.TransportCar,
	}
	require.NoError(t, e.db.Create(&step).Error)
	return &step
}

func (e *stepTestEnv) tripLocations(t *testing.T, tripID string) []string {
	t.Helper()

	var steps []models.Step
	require.NoError(t, e.db.Where("trip_id = ?", tripID).Order("`order` ASC").Find(&steps).Error)

	var locations []string
	for i, s := range steps {
		assert.Equal(t, i+1, s.Order)
		locations = append(locations, s.Location)
	}
	return locations
}

func TestStepController_CreateStep(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	env.seedStep(t, trip.ID, "Paris", 1, false)

	w := env.request(t, http.MethodPost, "/trips/"+trip.ID+"/steps", gin.H{
		"location": "Lyon",
		"nights":   2,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Step
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Lyon", created.Location)
	assert.Equal(t, 2, created.Order)
	assert.Equal(t, []string{"Paris", "Lyon"}, env.tripLocations(t, trip.ID))
}

func TestStepController_CreateStep_InsertAfterCascades(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	paris := env.seedStep(t, trip.ID, "Paris", 1, false)
	nice := env.seedStep(t, trip.ID, "Nice", 2, false)

	start := models.NewDate(2026, time.June, 1)
	nights := 2
	require.NoError(t, env.db.Model(paris).Updates(map[string]interface{}{
		"start_date": start, "nights": nights,
	}).Error)
	require.NoError(t, env.db.Model(nice).Update("nights", 1).Error)

	w := env.request(t, http.MethodPost, "/trips/"+trip.ID+"/steps", gin.H{
		"location":        "Lyon",
		"nights":          3,
		"insert_after_id": paris.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, []string{"Paris", "Lyon", "Nice"}, env.tripLocations(t, trip.ID))

	// Dates cascade from the first step through the insertion.
	var steps []models.Step
	require.NoError(t, env.db.Where("trip_id = ?", trip.ID).Order("`order` ASC").Find(&steps).Error)
	require.NotNil(t, steps[1].StartDate)
	assert.Equal(t, "2026-06-03", steps[1].StartDate.String())
	assert.Equal(t, "2026-06-06", steps[1].EndDate.String())
	assert.Equal(t, "2026-06-06", steps[2].StartDate.String())
	assert.Equal(t, "2026-06-07", steps[2].EndDate.String())

	var stored models.Trip
	require.NoError(t, env.db.First(&stored, "id = ?", trip.ID).Error)
	assert.Equal(t, "2026-06-01", stored.StartDate.String())
	assert.Equal(t, "2026-06-07", stored.EndDate.String())
}

func TestStepController_CreateStep_InvalidTransportMode(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)

	w := env.request(t, http.MethodPost, "/trips/"+trip.ID+"/steps", gin.H{
		"location":       "Lyon",
		"transport_mode": "teleport",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStepController_CreateStep_ForeignTrip(t *testing.T) {
	env := newStepTestEnv(t)

	other := models.User{
		ID: uuid.New().String(), Email: "other@example.com", Name: "Other", Password: "secret",
	}
	require.NoError(t, env.db.Create(&other).Error)
	trip := env.seedTrip(t, other.ID)

	w := env.request(t, http.MethodPost, "/trips/"+trip.ID+"/steps", gin.H{"location": "Lyon"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStepController_UpdateStepSchedule(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	paris := env.seedStep(t, trip.ID, "Paris", 1, false)
	env.seedStep(t, trip.ID, "Lyon", 2, false)
	require.NoError(t, env.db.Model(&models.Step{}).Where("trip_id = ?", trip.ID).Update("nights", 1).Error)

	w := env.request(t, http.MethodPut, "/steps/"+paris.ID+"/schedule", gin.H{
		"start_date": "2026-06-01",
		"nights":     2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var steps []models.Step
	require.NoError(t, env.db.Where("trip_id = ?", trip.ID).Order("`order` ASC").Find(&steps).Error)
	assert.Equal(t, "2026-06-03", steps[0].EndDate.String())
	assert.Equal(t, "2026-06-03", steps[1].StartDate.String())
	assert.Equal(t, "2026-06-04", steps[1].EndDate.String())
}

func TestStepController_UpdateStepSchedule_RejectsNegativeNights(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	paris := env.seedStep(t, trip.ID, "Paris", 1, false)

	w := env.request(t, http.MethodPut, "/steps/"+paris.ID+"/schedule", gin.H{
		"start_date": "2026-06-01",
		"nights":     -3,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStepController_DeleteStep(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	env.seedStep(t, trip.ID, "Paris", 1, false)
	lyon := env.seedStep(t, trip.ID, "Lyon", 2, false)
	env.seedStep(t, trip.ID, "Nice", 3, true)

	w := env.request(t, http.MethodDelete, "/steps/"+lyon.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp utils.SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Step deleted successfully", resp.Message)

	assert.Equal(t, []string{"Paris", "Nice"}, env.tripLocations(t, trip.ID))
}

func TestStepController_DeleteStep_DestinationProtected(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	env.seedStep(t, trip.ID, "Paris", 1, false)
	nice := env.seedStep(t, trip.ID, "Nice", 2, true)

	w := env.request(t, http.MethodDelete, "/steps/"+nice.ID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Contains(t, resp.Error, "destination")

	assert.Equal(t, []string{"Paris", "Nice"}, env.tripLocations(t, trip.ID))
}

func TestStepController_DeleteStep_LastStepProtected(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	paris := env.seedStep(t, trip.ID, "Paris", 1, false)

	w := env.request(t, http.MethodDelete, "/steps/"+paris.ID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestStepController_MoveStepDown(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	paris := env.seedStep(t, trip.ID, "Paris", 1, false)
	env.seedStep(t, trip.ID, "Lyon", 2, false)

	w := env.request(t, http.MethodPost, "/steps/"+paris.ID+"/move-down", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"Lyon", "Paris"}, env.tripLocations(t, trip.ID))
}

func TestStepController_ReorderSteps(t *testing.T) {
	env := newStepTestEnv(t)
	trip := env.seedTrip(t, env.userID)
	paris := env.seedStep(t, trip.ID, "Paris", 1, false)
	lyon := env.seedStep(t, trip.ID, "Lyon", 2, false)
	nice := env.seedStep(t, trip.ID, "Nice", 3, true)

	w := env.request(t, http.MethodPost, "/trips/"+trip.ID+"/steps/reorder", gin.H{
		"steps": []gin.H{
			{"step_id": nice.ID, "order": 1},
			{"step_id": paris.ID, "order": 2},
			{"step_id": lyon.ID, "order": 3},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"Nice", "Paris", "Lyon"}, env.tripLocations(t, trip.ID))
}
