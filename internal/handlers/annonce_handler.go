package handlers

import (
	"strconv"

	"annonces/internal/apierror"
	"annonces/internal/middleware"
	"annonces/internal/repositories"
	"annonces/internal/response"
	"annonces/internal/services"
	"annonces/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AnnonceHandler handles HTTP requests for annonces.
type AnnonceHandler struct {
	service *services.AnnonceService
}

// NewAnnonceHandler creates a new AnnonceHandler.
func NewAnnonceHandler(service *services.AnnonceService) *AnnonceHandler {
	return &AnnonceHandler{service: service}
}

// RegisterRoutes registers the annonce routes. The /all route must come
// before /:id so the admin listing is not captured as an id lookup.
func (h *AnnonceHandler) RegisterRoutes(router fiber.Router, auth, admin, owner fiber.Handler) {
	r := router.Group("/annonces")
	r.Get("/", h.HandleSearch)
	r.Get("/all", auth, admin, h.HandleGetAll)
	r.Get("/:id", h.HandleGetByID)
	r.Post("/", auth, h.HandleCreate)
	r.Put("/:id", auth, owner, h.HandleUpdate)
	r.Delete("/:id", auth, owner, h.HandleDelete)
}

// AnnonceRequest represents the request body for annonce create and update.
// Price is declared loosely so both JSON numbers and numeric strings are
// accepted; anything else is a validation failure rather than a parse error.
type AnnonceRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Price        any     `json:"price"`
	Filepath     *string `json:"filepath"`
	Status       *string `json:"status"`
	CategoryID   *uint   `json:"category_id"`
	AdminComment *string `json:"admin_comment"`
}

// parsePrice coerces the loosely typed price into a float, mirroring the
// permissive handling of form-encoded numeric strings.
func parsePrice(v any) (*float64, bool) {
	switch p := v.(type) {
	case nil:
		return nil, true
	case float64:
		return &p, true
	case string:
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, false
		}
		return &f, true
	default:
		return nil, false
	}
}

// validateAnnonce runs the field checks shared by create and update. Updates
// are partial, so an absent title only fails when one is required.
func validateAnnonce(req *AnnonceRequest, requireTitle bool) ([]validation.FieldError, *float64) {
	var violations []validation.FieldError
	if (requireTitle && req.Title == nil) || (req.Title != nil && *req.Title == "") {
		violations = append(violations, validation.FieldError{
			Field:   "title",
			Message: "title is required",
		})
	}
	price, ok := parsePrice(req.Price)
	if !ok {
		violations = append(violations, validation.FieldError{
			Field:   "price",
			Message: "price must be a valid number",
		})
	}
	return violations, price
}

func (req *AnnonceRequest) toInput(price *float64) services.AnnonceInput {
	return services.AnnonceInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        price,
		Filepath:     req.Filepath,
		Status:       req.Status,
		CategoryID:   req.CategoryID,
		AdminComment: req.AdminComment,
	}
}

// parsePagination reads and bounds the page/limit query parameters.
func parsePagination(c *fiber.Ctx) (int, int, error) {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 || limit < 1 || limit > 100 {
		return 0, 0, apierror.BadRequest("Invalid pagination parameters", nil)
	}
	return page, limit, nil
}

// HandleSearch is the public listing: free-text search over title and
// description, optional category filter, paginated.
func (h *AnnonceHandler) HandleSearch(c *fiber.Ctx) error {
	page, limit, err := parsePagination(c)
	if err != nil {
		return err
	}

	params := repositories.AnnonceSearchParams{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return apierror.BadRequest("Invalid category_id parameter", nil)
		}
		cid := uint(id)
		params.CategoryID = &cid
	}

	annonces, total, err := h.service.Search(params)
	if err != nil {
		return err
	}

	return response.OK(c, "", fiber.Map{
		"annonces":   annonces,
		"pagination": response.NewPagination(page, limit, total),
	})
}

// HandleGetAll is the admin listing, filterable by owner and status.
func (h *AnnonceHandler) HandleGetAll(c *fiber.Ctx) error {
	page, limit, err := parsePagination(c)
	if err != nil {
		return err
	}

	params := repositories.AnnonceSearchParams{
		UserID: c.Query("user_id"),
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}

	annonces, total, err := h.service.Search(params)
	if err != nil {
		return err
	}

	return response.OK(c, "", fiber.Map{
		"annonces":   annonces,
		"pagination": response.NewPagination(page, limit, total),
	})
}

// HandleGetByID retrieves one annonce with its category and owner.
func (h *AnnonceHandler) HandleGetByID(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return apierror.NotFound("Annonce not found")
	}

	annonce, aerr := h.service.GetByID(uint(id))
	if aerr != nil {
		return aerr
	}
	return response.OK(c, "", fiber.Map{"annonce": annonce})
}

// HandleCreate creates an annonce owned by the authenticated user. The mail
// notification outcome is reported alongside the created annonce.
func (h *AnnonceHandler) HandleCreate(c *fiber.Ctx) error {
	var req AnnonceRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.BadRequest("Invalid request body", err.Error())
	}

	violations, price := validateAnnonce(&req, true)
	if len(violations) > 0 {
		return apierror.BadRequest("Validation failed", violations)
	}

	annonce, mailSent, err := h.service.Create(req.toInput(price), middleware.CurrentUser(c))
	if err != nil {
		return err
	}

	return response.Created(c, "Annonce created successfully", fiber.Map{
		"annonce":           annonce,
		"mail_notification": mailSent,
	})
}

// HandleUpdate applies a partial update to an annonce already cleared by the
// ownership guard.
func (h *AnnonceHandler) HandleUpdate(c *fiber.Ctx) error {
	var req AnnonceRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.BadRequest("Invalid request body", err.Error())
	}

	violations, price := validateAnnonce(&req, false)
	if len(violations) > 0 {
		return apierror.BadRequest("Validation failed", violations)
	}

	target := middleware.OwnedAnnonce(c)
	annonce, err := h.service.Update(target.ID, req.toInput(price), middleware.CurrentUser(c))
	if err != nil {
		return err
	}

	return response.OK(c, "Annonce updated successfully", fiber.Map{"annonce": annonce})
}

// HandleDelete removes an annonce already cleared by the ownership guard.
func (h *AnnonceHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.Delete(middleware.OwnedAnnonce(c).ID); err != nil {
		return err
	}
	return response.OK(c, "Annonce deleted successfully", nil)
}
