package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/rentora/backoffice/internal/auth"
	"github.com/rentora/backoffice/internal/booking/dto"
	"github.com/rentora/backoffice/internal/booking/models"
	"github.com/rentora/backoffice/internal/booking/service"
)

type mockBookingService struct {
	createFn       func(ctx context.Context, actor auth.Actor, in service.CreateBookingInput) (*models.Booking, error)
	getFn          func(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Booking, error)
	listFn         func(ctx context.Context, actor auth.Actor, tenantUserID uuid.UUID) ([]models.Booking, error)
	updateStatusFn func(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error)
	softDeleteFn   func(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	listLogsFn     func(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) ([]models.BookingLog, error)
	availabilityFn func(ctx context.Context, propertyID, unitID uuid.UUID, start, end datatypes.Date) (*uuid.UUID, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, actor auth.Actor, in service.CreateBookingInput) (*models.Booking, error) {
	return m.createFn(ctx, actor, in)
}

func (m *mockBookingService) GetBooking(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Booking, error) {
	return m.getFn(ctx, actor, id)
}

func (m *mockBookingService) ListByTenant(ctx context.Context, actor auth.Actor, tenantUserID uuid.UUID) ([]models.Booking, error) {
	return m.listFn(ctx, actor, tenantUserID)
}

func (m *mockBookingService) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error) {
	return m.updateStatusFn(ctx, actor, id, status, notes)
}

func (m *mockBookingService) SoftDelete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	return m.softDeleteFn(ctx, actor, id)
}

func (m *mockBookingService) ListLogs(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) ([]models.BookingLog, error) {
	return m.listLogsFn(ctx, actor, bookingID)
}

func (m *mockBookingService) CheckAvailability(ctx context.Context, propertyID, unitID uuid.UUID, start, end datatypes.Date) (*uuid.UUID, error) {
	return m.availabilityFn(ctx, propertyID, unitID, start, end)
}

func newTestContext(t *testing.T, method, target, body string, actor auth.Actor) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.SetActor(c, actor)
	return c, rec
}

func sampleBooking() *models.Booking {
	unitID := uuid.New()
	return &models.Booking{
		ID:           uuid.New(),
		TenantUserID: uuid.New(),
		PropertyID:   uuid.New(),
		UnitID:       &unitID,
		StartDate:    datatypes.Date(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:      datatypes.Date(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)),
		Status:       models.StatusPending,
	}
}

func TestCreateBooking_Created(t *testing.T) {
	booking := sampleBooking()
	svc := &mockBookingService{
		createFn: func(ctx context.Context, actor auth.Actor, in service.CreateBookingInput) (*models.Booking, error) {
			assert.Equal(t, booking.PropertyID, in.PropertyID)
			assert.Equal(t, "2026-03-01", time.Time(in.StartDate).Format(dto.DateLayout))
			return booking, nil
		},
	}
	h := NewBookingHandler(svc)

	body := fmt.Sprintf(`{"property_id":%q,"unit_id":%q,"start_date":"2026-03-01","end_date":"2026-03-10"}`,
		booking.PropertyID, *booking.UnitID)
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/bookings", body, auth.Actor{UserID: booking.TenantUserID, Role: auth.RoleTenant})

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, booking.ID, resp.ID)
	assert.Equal(t, "2026-03-01", resp.StartDate)
	assert.Equal(t, "2026-03-10", resp.EndDate)
	assert.Equal(t, models.StatusPending, resp.Status)
}

func TestCreateBooking_MissingProperty(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{})

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/bookings",
		`{"start_date":"2026-03-01","end_date":"2026-03-10"}`,
		auth.Actor{UserID: uuid.New(), Role: auth.RoleTenant})

	err := h.CreateBooking(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCreateBooking_BadDate(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{})

	body := fmt.Sprintf(`{"property_id":%q,"start_date":"01/03/2026","end_date":"2026-03-10"}`, uuid.New())
	c, _ := newTestContext(t, http.MethodPost, "/api/v1/bookings", body,
		auth.Actor{UserID: uuid.New(), Role: auth.RoleTenant})

	err := h.CreateBooking(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestCreateBooking_ConflictResponse(t *testing.T) {
	conflictID := uuid.New()
	svc := &mockBookingService{
		createFn: func(ctx context.Context, actor auth.Actor, in service.CreateBookingInput) (*models.Booking, error) {
			return nil, &service.ConflictError{ConflictingBookingID: conflictID}
		},
	}
	h := NewBookingHandler(svc)

	body := fmt.Sprintf(`{"property_id":%q,"unit_id":%q,"start_date":"2026-03-01","end_date":"2026-03-10"}`, uuid.New(), uuid.New())
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/bookings", body,
		auth.Actor{UserID: uuid.New(), Role: auth.RoleTenant})

	require.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp dto.ConflictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, conflictID, resp.ConflictingBookingID)
}

func TestCreateBooking_MissingActor(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.CreateBooking(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestUpdateStatus_OK(t *testing.T) {
	booking := sampleBooking()
	booking.Status = models.StatusConfirmed
	svc := &mockBookingService{
		updateStatusFn: func(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error) {
			assert.Equal(t, booking.ID, id)
			assert.Equal(t, models.StatusConfirmed, status)
			return booking, nil
		},
	}
	h := NewBookingHandler(svc)

	c, rec := newTestContext(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID.String()+"/status",
		`{"status":"confirmed"}`, auth.Actor{UserID: uuid.New(), Role: auth.RoleManager})
	c.SetParamNames("id")
	c.SetParamValues(booking.ID.String())

	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusConfirmed, resp.Status)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	svc := &mockBookingService{
		updateStatusFn: func(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error) {
			return nil, fmt.Errorf("%w: confirmed -> confirmed", service.ErrInvalidTransition)
		},
	}
	h := NewBookingHandler(svc)

	id := uuid.New()
	c, _ := newTestContext(t, http.MethodPatch, "/api/v1/bookings/"+id.String()+"/status",
		`{"status":"confirmed"}`, auth.Actor{UserID: uuid.New(), Role: auth.RoleManager})
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	err := h.UpdateStatus(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestUpdateStatus_PublishFailureStillOK(t *testing.T) {
	booking := sampleBooking()
	booking.Status = models.StatusConfirmed
	svc := &mockBookingService{
		updateStatusFn: func(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error) {
			return booking, fmt.Errorf("%w: broker down", service.ErrEventPublish)
		},
	}
	h := NewBookingHandler(svc)

	c, rec := newTestContext(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID.String()+"/status",
		`{"status":"confirmed"}`, auth.Actor{UserID: uuid.New(), Role: auth.RoleManager})
	c.SetParamNames("id")
	c.SetParamValues(booking.ID.String())

	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, booking.ID, resp.ID)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc := &mockBookingService{
		updateStatusFn: func(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error) {
			return nil, service.ErrBookingNotFound
		},
	}
	h := NewBookingHandler(svc)

	id := uuid.New()
	c, _ := newTestContext(t, http.MethodPatch, "/api/v1/bookings/"+id.String()+"/status",
		`{"status":"cancelled"}`, auth.Actor{UserID: uuid.New(), Role: auth.RoleManager})
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	err := h.UpdateStatus(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestUpdateStatus_Forbidden(t *testing.T) {
	svc := &mockBookingService{
		updateStatusFn: func(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error) {
			return nil, service.ErrForbidden
		},
	}
	h := NewBookingHandler(svc)

	id := uuid.New()
	c, _ := newTestContext(t, http.MethodPatch, "/api/v1/bookings/"+id.String()+"/status",
		`{"status":"confirmed"}`, auth.Actor{UserID: uuid.New(), Role: auth.RoleTenant})
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	err := h.UpdateStatus(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestSoftDelete_NoContent(t *testing.T) {
	id := uuid.New()
	svc := &mockBookingService{
		softDeleteFn: func(ctx context.Context, actor auth.Actor, got uuid.UUID) error {
			assert.Equal(t, id, got)
			return nil
		},
	}
	h := NewBookingHandler(svc)

	c, rec := newTestContext(t, http.MethodDelete, "/api/v1/bookings/"+id.String(), "",
		auth.Actor{UserID: uuid.New(), Role: auth.RoleSuperAdmin})
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	require.NoError(t, h.SoftDelete(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCheckAvailability_Available(t *testing.T) {
	svc := &mockBookingService{
		availabilityFn: func(ctx context.Context, propertyID, unitID uuid.UUID, start, end datatypes.Date) (*uuid.UUID, error) {
			return nil, nil
		},
	}
	h := NewBookingHandler(svc)

	target := fmt.Sprintf("/api/v1/availability?propertyId=%s&unitId=%s&startDate=2026-03-01&endDate=2026-03-10", uuid.New(), uuid.New())
	c, rec := newTestContext(t, http.MethodGet, target, "", auth.Actor{UserID: uuid.New(), Role: auth.RoleTenant})

	require.NoError(t, h.CheckAvailability(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.IsAvailable)
	assert.Nil(t, resp.ConflictingBookingID)
}

func TestCheckAvailability_Conflict(t *testing.T) {
	conflictID := uuid.New()
	svc := &mockBookingService{
		availabilityFn: func(ctx context.Context, propertyID, unitID uuid.UUID, start, end datatypes.Date) (*uuid.UUID, error) {
			return &conflictID, nil
		},
	}
	h := NewBookingHandler(svc)

	target := fmt.Sprintf("/api/v1/availability?propertyId=%s&unitId=%s&startDate=2026-03-01&endDate=2026-03-10", uuid.New(), uuid.New())
	c, rec := newTestContext(t, http.MethodGet, target, "", auth.Actor{UserID: uuid.New(), Role: auth.RoleSupport})

	require.NoError(t, h.CheckAvailability(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.IsAvailable)
	require.NotNil(t, resp.ConflictingBookingID)
	assert.Equal(t, conflictID, *resp.ConflictingBookingID)
}
