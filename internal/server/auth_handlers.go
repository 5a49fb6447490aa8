package server

import (
	"time"

	"nextfilm/internal/auth"
	"nextfilm/internal/middleware"
	"nextfilm/internal/models"
	"nextfilm/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	Bio       string `json:"bio" form:"bio"`
	City      string `json:"city" form:"city"`
}

type signinRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Create(c.UserContext(), service.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		Bio:       req.Bio,
		City:      req.City,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

// SignIn handles POST /api/auth/signin. The token is returned in the body and
// also set as the session cookie for browser clients.
// @Summary User sign-in
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} service.SignInResult
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/signin [post]
func (s *Server) SignIn(c *fiber.Ctx) error {
	var req signinRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	result, err := s.authService.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	c.Cookie(s.sessionCookie(result.Token, result.ExpiresAt))
	return c.JSON(result)
}

// Session handles GET /api/auth/session
func (s *Server) Session(c *fiber.Ctx) error {
	user, err := s.authService.Session(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// SignOut handles POST /api/auth/signout. It always succeeds; a valid token
// is additionally revoked for the rest of its lifetime.
func (s *Server) SignOut(c *fiber.Ctx) error {
	s.authService.SignOut(c.UserContext(), middleware.IdentityFrom(c))
	c.Cookie(s.clearedSessionCookie())
	return c.JSON(fiber.Map{"message": "Signed out"})
}

func (s *Server) sessionCookie(token string, expiresAt time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL / time.Second),
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func (s *Server) clearedSessionCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
