package repositories

import (
	"fmt"

	"annonces/internal/models"

	"gorm.io/gorm"
)

// GORMAnnonceRepository is a GORM implementation of AnnonceRepository.
type GORMAnnonceRepository struct {
	db *gorm.DB
}

// NewGORMAnnonceRepository creates a new instance of GORMAnnonceRepository.
func NewGORMAnnonceRepository(db *gorm.DB) *GORMAnnonceRepository {
	return &GORMAnnonceRepository{db: db}
}

// Search returns one page of annonces matching the params, newest first,
// together with the total match count.
func (r *GORMAnnonceRepository) Search(p AnnonceSearchParams) ([]models.Annonce, int64, error) {
	q := r.db.Model(&models.Annonce{})

	if p.Search != "" {
		pattern := "%" + p.Search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if p.CategoryID != nil {
		q = q.Where("category_id = ?", *p.CategoryID)
	}
	if p.UserID != "" {
		q = q.Where("user_id = ?", p.UserID)
	}
	if p.Status != "" {
		q = q.Where("status = ?", p.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count annonces: %w", err)
	}

	var annonces []models.Annonce
	err := q.Preload("Category").Preload("User").
		Order("created_at DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Find(&annonces).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search annonces: %w", err)
	}
	return annonces, total, nil
}

// GetByID retrieves one annonce with its category and owner loaded.
func (r *GORMAnnonceRepository) GetByID(id uint) (*models.Annonce, error) {
	var annonce models.Annonce
	err := r.db.Preload("Category").Preload("User").First(&annonce, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get annonce %d: %w", id, err)
	}
	return &annonce, nil
}

// Create inserts a new annonce.
func (r *GORMAnnonceRepository) Create(annonce *models.Annonce) error {
	if err := r.db.Create(annonce).Error; err != nil {
		return fmt.Errorf("failed to create annonce: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to the annonce row.
func (r *GORMAnnonceRepository) UpdateFields(id uint, fields map[string]any) error {
	res := r.db.Model(&models.Annonce{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update annonce %d: %w", id, res.Error)
	}
	return nil
}

// Delete removes an annonce by primary key.
func (r *GORMAnnonceRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Annonce{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete annonce %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("annonce %d not found for deletion: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// Transaction runs fn against a repository bound to a database transaction.
func (r *GORMAnnonceRepository) Transaction(fn func(AnnonceRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GORMAnnonceRepository{db: tx})
	})
}
