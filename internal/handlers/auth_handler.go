package handlers

import (
	"strings"

	"annonces/internal/apierror"
	"annonces/internal/models"
	"annonces/internal/response"
	"annonces/internal/services"
	"annonces/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for registration, login and logout.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validation.New(),
	}
}

// RegisterRoutes registers the authentication routes at the root.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
	router.Post("/logout", h.HandleLogout)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=20"`
	Password      string `json:"password" validate:"required,min=8,passwordstrength"`
	Firstname     string `json:"firstname" validate:"omitempty,max=50"`
	Lastname      string `json:"lastname" validate:"omitempty,max=50"`
	PhoneNumber   string `json:"phone_number" validate:"omitempty,phonechars"`
	Address       string `json:"address"`
	ZipCode       string `json:"zip_code" validate:"omitempty,len=5,number"`
	City          string `json:"city"`
	ProfilPicture string `json:"profil_picture"`
}

// HandleRegister creates a new user account.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.BadRequest("Invalid request body", err.Error())
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Firstname = strings.TrimSpace(req.Firstname)
	req.Lastname = strings.TrimSpace(req.Lastname)

	if err := h.validate.Struct(req); err != nil {
		return apierror.BadRequest("Validation failed", validation.Translate(err))
	}

	user := &models.User{
		Username:      req.Username,
		Password:      req.Password,
		Firstname:     req.Firstname,
		Lastname:      req.Lastname,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		ZipCode:       req.ZipCode,
		City:          req.City,
		ProfilPicture: req.ProfilPicture,
	}
	if err := h.authService.Register(user); err != nil {
		return err
	}

	return response.Created(c, "User created successfully", fiber.Map{"user": user})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin authenticates the user and issues a bearer token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.BadRequest("Invalid request body", err.Error())
	}

	user, token, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		return err
	}

	return response.OK(c, "Login successful", fiber.Map{
		"user":  user,
		"token": token,
	})
}

// HandleLogout revokes the presented bearer token.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.Get("Authorization")); err != nil {
		return err
	}
	return response.OK(c, "Logout successful", nil)
}
