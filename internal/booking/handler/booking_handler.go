package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"

	"github.com/rentora/backoffice/internal/auth"
	"github.com/rentora/backoffice/internal/booking/dto"
	"github.com/rentora/backoffice/internal/booking/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

// RegisterRoutes attaches the booking API to an authenticated route group.
func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/bookings", h.CreateBooking)
	g.GET("/bookings/:id", h.GetBooking)
	g.PATCH("/bookings/:id/status", h.UpdateStatus)
	g.DELETE("/bookings/:id", h.SoftDelete)
	g.GET("/bookings/:id/logs", h.ListLogs)
	g.GET("/tenants/:tenantId/bookings", h.ListTenantBookings)
	g.GET("/availability", h.CheckAvailability)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.PropertyID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "property_id is required")
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date, expected yyyy-mm-dd")
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date, expected yyyy-mm-dd")
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), actor, service.CreateBookingInput{
		TenantUserID: req.TenantUserID,
		PropertyID:   req.PropertyID,
		UnitID:       req.UnitID,
		StartDate:    start,
		EndDate:      end,
		Notes:        req.Notes,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), actor, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	var req dto.UpdateBookingStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Status == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "status is required")
	}

	booking, err := h.svc.UpdateStatus(c.Request().Context(), actor, id, req.Status, req.Notes)
	if err != nil {
		// The transition committed; only the broker hand-off failed. The
		// booking is returned and the failure is left to replay tooling.
		if errors.Is(err, service.ErrEventPublish) {
			log.Printf("[BookingHandler] %v", err)
			return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
		}
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) SoftDelete(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	if err := h.svc.SoftDelete(c.Request().Context(), actor, id); err != nil {
		return respondServiceError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *BookingHandler) ListLogs(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	logs, err := h.svc.ListLogs(c.Request().Context(), actor, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	resp := make([]dto.BookingLogResponse, len(logs))
	for i := range logs {
		resp[i] = dto.ToBookingLogResponse(&logs[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) ListTenantBookings(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
	}

	bookings, err := h.svc.ListByTenant(c.Request().Context(), actor, tenantID)
	if err != nil {
		return respondServiceError(c, err)
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		resp[i] = dto.ToBookingResponse(&bookings[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) CheckAvailability(c echo.Context) error {
	if _, ok := auth.ActorFromContext(c); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing caller identity")
	}

	propertyID, err := uuid.Parse(c.QueryParam("propertyId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid propertyId")
	}
	unitID, err := uuid.Parse(c.QueryParam("unitId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid unitId")
	}
	start, err := parseDate(c.QueryParam("startDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid startDate, expected yyyy-mm-dd")
	}
	end, err := parseDate(c.QueryParam("endDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid endDate, expected yyyy-mm-dd")
	}

	conflictID, err := h.svc.CheckAvailability(c.Request().Context(), propertyID, unitID, start, end)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, dto.AvailabilityResponse{
		PropertyID:           propertyID,
		UnitID:               unitID,
		StartDate:            time.Time(start).Format(dto.DateLayout),
		EndDate:              time.Time(end).Format(dto.DateLayout),
		IsAvailable:          conflictID == nil,
		ConflictingBookingID: conflictID,
	})
}

func parseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return datatypes.Date(t), nil
}

func respondServiceError(c echo.Context, err error) error {
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, dto.ConflictResponse{
			Message:              "unit is not available for the selected date range",
			ConflictingBookingID: conflict.ConflictingBookingID,
		})
	}

	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrUnitNotInProperty),
		errors.Is(err, service.ErrUnitRequired),
		errors.Is(err, service.ErrTenantRequired),
		errors.Is(err, service.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
