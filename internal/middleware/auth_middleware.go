package middleware

import (
	"strconv"

	"annonces/internal/apierror"
	"annonces/internal/models"
	"annonces/internal/repositories"
	"annonces/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	userKey    = "user"
	annonceKey = "annonce"
)

// AuthRequired verifies the bearer credential against both the signature and
// the server-side stored token, then stores the resolved user in the request
// context for downstream guards and handlers.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := authService.Authenticate(c.Get("Authorization"))
		if err != nil {
			return err
		}
		c.Locals(userKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user resolved by AuthRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

// AdminRequired rejects any authenticated user without the admin role. It
// must run after AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			return apierror.Forbidden("You do not have the rights to access this resource")
		}
		return c.Next()
	}
}

// AnnonceOwnership loads the target annonce and grants access to its owner
// or any admin. The loaded annonce is cached in the request context so the
// handler does not have to fetch it again.
func AnnonceOwnership(annonceRepo repositories.AnnonceRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 32)
		if err != nil {
			return apierror.NotFound("Annonce not found")
		}

		annonce, aerr := annonceRepo.GetByID(uint(id))
		if aerr != nil {
			return apierror.FromRead(aerr, "Annonce not found", "Error while checking annonce ownership")
		}

		user := CurrentUser(c)
		if user == nil {
			return apierror.Unauthorized("No token provided")
		}
		if !user.IsAdmin() && (annonce.UserID == nil || *annonce.UserID != user.ID) {
			return apierror.Forbidden("You are not allowed to modify this annonce")
		}

		c.Locals(annonceKey, annonce)
		return c.Next()
	}
}

// OwnedAnnonce returns the annonce loaded by AnnonceOwnership, or nil.
func OwnedAnnonce(c *fiber.Ctx) *models.Annonce {
	annonce, _ := c.Locals(annonceKey).(*models.Annonce)
	return annonce
}
