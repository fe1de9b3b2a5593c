package handlers

import (
	"annonces/internal/apierror"
	"annonces/internal/middleware"
	"annonces/internal/response"
	"annonces/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for the authenticated user's profile.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterRoutes registers the profile routes; all require authentication.
func (h *UserHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	r := router.Group("/users")
	r.Get("/profile", auth, h.HandleGetProfile)
	r.Put("/profile", auth, h.HandleUpdateProfile)
	r.Put("/profile/password", auth, h.HandleChangePassword)
}

// ProfileRequest represents the request body for profile updates.
type ProfileRequest struct {
	Firstname     *string `json:"firstname"`
	Lastname      *string `json:"lastname"`
	PhoneNumber   *string `json:"phone_number"`
	Address       *string `json:"address"`
	ZipCode       *string `json:"zip_code"`
	City          *string `json:"city"`
	ProfilPicture *string `json:"profil_picture"`
}

// HandleGetProfile returns the authenticated user's profile.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.service.GetProfile(middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return response.OK(c, "", fiber.Map{"user": user})
}

// HandleUpdateProfile applies a partial update to the profile fields.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.BadRequest("Invalid request body", err.Error())
	}

	user, err := h.service.UpdateProfile(middleware.CurrentUser(c).ID, services.ProfileInput{
		Firstname:     req.Firstname,
		Lastname:      req.Lastname,
		PhoneNumber:   req.PhoneNumber,
		Address:       req.Address,
		ZipCode:       req.ZipCode,
		City:          req.City,
		ProfilPicture: req.ProfilPicture,
	})
	if err != nil {
		return err
	}
	return response.OK(c, "Profile updated successfully", fiber.Map{"user": user})
}

// PasswordRequest represents the request body for password changes.
type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleChangePassword changes the password after verifying the current one.
func (h *UserHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req PasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.BadRequest("Invalid request body", err.Error())
	}

	err := h.service.ChangePassword(middleware.CurrentUser(c).ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return response.OK(c, "Password changed successfully", nil)
}
