package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// Handler issues JWTs for the customer/admin API. Everything else about
// identity management lives outside this service.
type Handler struct {
	repo      RepositoryInterface
	jwtSecret string
	validate  *validator.Validate
}

func NewHandler(repo RepositoryInterface, jwtSecret string) *Handler {
	return &Handler{
		repo:      repo,
		jwtSecret: jwtSecret,
		validate:  validator.New(),
	}
}

func (h *Handler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Validation failed: " + err.Error()})
	}

	user, err := h.repo.FindUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid credentials"})
		}
		c.Logger().Error("Handler.Login: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Login failed"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid credentials"})
	}

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		c.Logger().Error("Handler.Login: sign: ", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Login failed"})
	}

	return c.JSON(http.StatusOK, map[string]string{"token": signed, "role": user.Role})
}
