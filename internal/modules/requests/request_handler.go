package requests

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for transport requests.
type Handler struct {
	svc      ServiceInterface
	validate *validator.Validate
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *Handler) Create(c echo.Context) error {
	customerID := c.Get("userID").(string)

	var req models.CreateRequestInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	result, err := h.svc.Create(c.Request().Context(), customerID, req)
	if err != nil {
		c.Logger().Error("Handler.Create: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create transport request"})
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) GetDetails(c echo.Context) error {
	customerID := c.Get("userID").(string)

	tr, err := h.svc.GetDetails(c.Request().Context(), c.Param("requestId"), customerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Transport request not found"})
		}
		c.Logger().Error("Handler.GetDetails: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve transport request"})
	}
	return c.JSON(http.StatusOK, tr)
}

func (h *Handler) ListMine(c echo.Context) error {
	customerID := c.Get("userID").(string)

	page := 1
	limit := 20
	if pageStr := c.QueryParam("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	out, total, err := h.svc.ListByCustomer(c.Request().Context(), customerID, page, limit)
	if err != nil {
		c.Logger().Error("Handler.ListMine: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve transport requests"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"requests": out, "total": total})
}

// Ops transitions (admin role).

func (h *Handler) MarkInTransit(c echo.Context) error {
	return h.transition(c, h.svc.MarkInTransit, "mark in transit")
}

func (h *Handler) MarkDelivered(c echo.Context) error {
	return h.transition(c, h.svc.MarkDelivered, "mark delivered")
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel, "cancel")
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id string) error, verb string) error {
	err := fn(c.Request().Context(), c.Param("requestId"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Transport request not found"})
		}
		if errors.Is(err, models.ErrRequestNotTransitionable) {
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Transport request status does not permit this transition"})
		}
		c.Logger().Error("Handler."+verb+": ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to " + verb})
	}
	return c.NoContent(http.StatusNoContent)
}
