package handlers

import (
	"strconv"

	"annonces/internal/apierror"
	"annonces/internal/response"
	"annonces/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	service *services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// RegisterRoutes registers the category routes. Reads are public; writes
// require an authenticated admin.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router, auth, admin fiber.Handler) {
	r := router.Group("/categories")
	r.Get("/", h.HandleGetAll)
	r.Get("/:slug", h.HandleGetBySlug)
	r.Post("/", auth, admin, h.HandleCreate)
	r.Put("/:id", auth, admin, h.HandleUpdate)
	r.Delete("/:id", auth, admin, h.HandleDelete)
}

// CategoryRequest represents the request body for category create and update.
type CategoryRequest struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
}

func (req *CategoryRequest) toInput() services.CategoryInput {
	return services.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
}

// HandleGetAll lists every category ordered by name.
func (h *CategoryHandler) HandleGetAll(c *fiber.Ctx) error {
	categories, err := h.service.GetAll()
	if err != nil {
		return err
	}
	return response.OK(c, "", fiber.Map{"categories": categories})
}

// HandleGetBySlug retrieves one category by its slug.
func (h *CategoryHandler) HandleGetBySlug(c *fiber.Ctx) error {
	category, err := h.service.GetBySlug(c.Params("slug"))
	if err != nil {
		return err
	}
	return response.OK(c, "", fiber.Map{"category": category})
}

// HandleCreate creates a category (admin only).
func (h *CategoryHandler) HandleCreate(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.BadRequest("Invalid request body", err.Error())
	}

	category, err := h.service.Create(req.toInput())
	if err != nil {
		return err
	}
	return response.Created(c, "Category created successfully", fiber.Map{"category": category})
}

// HandleUpdate applies a partial update to a category (admin only).
func (h *CategoryHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return apierror.NotFound("Category not found")
	}

	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.BadRequest("Invalid request body", err.Error())
	}

	category, uerr := h.service.Update(uint(id), req.toInput())
	if uerr != nil {
		return uerr
	}
	return response.OK(c, "Category updated successfully", fiber.Map{"category": category})
}

// HandleDelete removes a category (admin only); its annonces are detached,
// never deleted.
func (h *CategoryHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return apierror.NotFound("Category not found")
	}

	if err := h.service.Delete(uint(id)); err != nil {
		return err
	}
	return response.OK(c, "Category deleted successfully", nil)
}
