package api

import (
	"net/http"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/auth"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/offers"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/quotes"
	"github.com/MattisW/matchmaking-platform-sub001/internal/modules/requests"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Handlers bundles the module handlers the router wires up.
type Handlers struct {
	Auth     *auth.Handler
	Requests *requests.Handler
	Quotes   *quotes.Handler
	Offers   *offers.Handler
}

// RegisterRoutes sets up middleware and all routes. The offer submission
// endpoints under /public are deliberately unauthenticated: carriers reach
// them through the invitation link.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret, clientOrigin string) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if clientOrigin != "" {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: []string{clientOrigin},
		}))
	}

	e.POST("/api/auth/login", h.Auth.Login)

	pub := e.Group("/public")
	pub.GET("/offers/:carrierRequestId", h.Offers.GetInvitation)
	pub.POST("/offers/:carrierRequestId", h.Offers.SubmitOffer)

	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(jwtSecret),
	}))
	api.Use(claimsToContext)

	api.POST("/requests", h.Requests.Create)
	api.GET("/requests", h.Requests.ListMine)
	api.GET("/requests/:requestId", h.Requests.GetDetails)
	api.GET("/requests/:requestId/quote", h.Quotes.GetForRequest)
	api.GET("/requests/:requestId/offers", h.Offers.ListOffers)

	api.POST("/quotes/:quoteId/accept", h.Quotes.Accept)
	api.POST("/quotes/:quoteId/decline", h.Quotes.Decline)

	api.POST("/offers/:carrierRequestId/accept", h.Offers.AcceptOffer)
	api.POST("/offers/:carrierRequestId/decline", h.Offers.DeclineOffer)

	admin := api.Group("/admin", requireAdmin)
	admin.POST("/requests/:requestId/transit", h.Requests.MarkInTransit)
	admin.POST("/requests/:requestId/deliver", h.Requests.MarkDelivered)
	admin.POST("/requests/:requestId/cancel", h.Requests.Cancel)
}

// claimsToContext copies the JWT claims the handlers rely on into the echo
// context.
func claimsToContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, ok := c.Get("user").(*jwt.Token)
		if !ok {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Missing token"})
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid token"})
		}
		sub, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		if sub == "" {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid token"})
		}
		c.Set("userID", sub)
		c.Set("userRole", role)
		return next(c)
	}
}

func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, _ := c.Get("userRole").(string); role != models.RoleAdmin {
			return c.JSON(http.StatusForbidden, models.ErrorResponse{Message: "Admin access required"})
		}
		return next(c)
	}
}
