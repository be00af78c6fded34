package offers

import (
	"errors"
	"net/http"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for carrier offers. GetInvitation and
// SubmitOffer back the public (unauthenticated) offer submission page; the
// remaining endpoints are customer-facing.
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

// pathUUID validates an ID path parameter. The invitation endpoints are
// public, so malformed links must 404 instead of reaching the database.
func pathUUID(c echo.Context, name string) (string, bool) {
	id := c.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

func (h *Handler) GetInvitation(c echo.Context) error {
	id, ok := pathUUID(c, "carrierRequestId")
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Invitation not found"})
	}
	cr, err := h.svc.GetInvitation(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Invitation not found"})
		}
		c.Logger().Error("Handler.GetInvitation: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve invitation"})
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *Handler) SubmitOffer(c echo.Context) error {
	id, ok := pathUUID(c, "carrierRequestId")
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Invitation not found"})
	}

	var req models.SubmitOfferInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	cr, err := h.svc.SubmitOffer(c.Request().Context(), id, req)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Invitation not found"})
		}
		if errors.Is(err, models.ErrOfferNotOpen) {
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "This invitation is not open for offers"})
		}
		c.Logger().Error("Handler.SubmitOffer: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to submit offer"})
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *Handler) ListOffers(c echo.Context) error {
	customerID := c.Get("userID").(string)

	offers, err := h.svc.ListOffers(c.Request().Context(), c.Param("requestId"), customerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Transport request not found"})
		}
		c.Logger().Error("Handler.ListOffers: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve offers"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"offers": offers, "total": len(offers)})
}

func (h *Handler) AcceptOffer(c echo.Context) error {
	customerID := c.Get("userID").(string)

	cr, err := h.svc.AcceptOffer(c.Request().Context(), c.Param("carrierRequestId"), customerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Offer not found"})
		}
		if errors.Is(err, models.ErrOfferNotOpen) {
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Offer is no longer open"})
		}
		c.Logger().Error("Handler.AcceptOffer: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to accept offer"})
	}
	return c.JSON(http.StatusOK, cr)
}

func (h *Handler) DeclineOffer(c echo.Context) error {
	customerID := c.Get("userID").(string)

	if err := h.svc.DeclineOffer(c.Request().Context(), c.Param("carrierRequestId"), customerID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Offer not found"})
		}
		if errors.Is(err, models.ErrOfferNotOpen) {
			return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Offer is no longer open"})
		}
		c.Logger().Error("Handler.DeclineOffer: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to decline offer"})
	}
	return c.NoContent(http.StatusNoContent)
}
