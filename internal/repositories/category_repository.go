package repositories

import "annonces/internal/models"

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	// GetAll returns every category ordered by name.
	GetAll() ([]models.Category, error)
	GetByID(id uint) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	Create(category *models.Category) error
	UpdateFields(id uint, fields map[string]any) error
	Delete(id uint) error
	// DetachAnnonces nulls the category reference on every annonce in the
	// category. Deletion detaches, never cascades.
	DetachAnnonces(id uint) error
	Transaction(fn func(CategoryRepository) error) error
}
