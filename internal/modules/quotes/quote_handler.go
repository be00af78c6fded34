package quotes

import (
	"errors"
	"net/http"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"

	"github.com/labstack/echo/v4"
)

// Handler handles HTTP requests for quotes.
type Handler struct {
	svc ServiceInterface
}

func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// lineItemView adds the display label to a line item; the engine only emits
// kind + parameters.
type lineItemView struct {
	models.QuoteLineItem
	Label string `json:"label"`
}

type quoteView struct {
	*models.Quote
	LineItems []lineItemView `json:"line_items"`
}

func present(q *models.Quote) quoteView {
	items := make([]lineItemView, 0, len(q.LineItems))
	for _, item := range q.LineItems {
		items = append(items, lineItemView{QuoteLineItem: item, Label: models.LineItemLabel(item.Kind)})
	}
	return quoteView{Quote: q, LineItems: items}
}

func (h *Handler) GetForRequest(c echo.Context) error {
	customerID := c.Get("userID").(string)

	quote, err := h.svc.GetForRequest(c.Request().Context(), c.Param("requestId"), customerID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Quote not found"})
		}
		c.Logger().Error("Handler.GetForRequest: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to retrieve quote"})
	}
	return c.JSON(http.StatusOK, present(quote))
}

func (h *Handler) Accept(c echo.Context) error {
	customerID := c.Get("userID").(string)

	quote, err := h.svc.Accept(c.Request().Context(), c.Param("quoteId"), customerID)
	if err != nil {
		return h.transitionError(c, err, "accept")
	}
	return c.JSON(http.StatusOK, present(quote))
}

func (h *Handler) Decline(c echo.Context) error {
	customerID := c.Get("userID").(string)

	quote, err := h.svc.Decline(c.Request().Context(), c.Param("quoteId"), customerID)
	if err != nil {
		return h.transitionError(c, err, "decline")
	}
	return c.JSON(http.StatusOK, present(quote))
}

func (h *Handler) transitionError(c echo.Context, err error, verb string) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Quote not found"})
	case errors.Is(err, models.ErrQuoteNotPending):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Quote is no longer pending"})
	case errors.Is(err, models.ErrQuoteExpired):
		return c.JSON(http.StatusConflict, models.ErrorResponse{Message: "Quote validity deadline has passed"})
	}
	c.Logger().Error("Handler."+verb+": ", err)
	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to " + verb + " quote"})
}
