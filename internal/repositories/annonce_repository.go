package repositories

import "annonces/internal/models"

// AnnonceSearchParams narrows and pages an annonce listing query. Search
// matches title or description; UserID and Status are admin-side filters.
type AnnonceSearchParams struct {
	Search     string
	CategoryID *uint
	UserID     string
	Status     string
	Page       int
	Limit      int
}

// Offset returns the row offset of the requested page.
func (p AnnonceSearchParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// AnnonceRepository defines the interface for annonce data access.
type AnnonceRepository interface {
	// Search returns the matching page ordered newest first, along with
	// the total match count.
	Search(p AnnonceSearchParams) ([]models.Annonce, int64, error)
	GetByID(id uint) (*models.Annonce, error)
	Create(annonce *models.Annonce) error
	UpdateFields(id uint, fields map[string]any) error
	Delete(id uint) error
	Transaction(fn func(AnnonceRepository) error) error
}
