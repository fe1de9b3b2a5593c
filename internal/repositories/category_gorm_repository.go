package repositories

import (
	"fmt"

	"annonces/internal/models"

	"gorm.io/gorm"
)

// GORMCategoryRepository is a GORM implementation of CategoryRepository.
type GORMCategoryRepository struct {
	db *gorm.DB
}

// NewGORMCategoryRepository creates a new instance of GORMCategoryRepository.
func NewGORMCategoryRepository(db *gorm.DB) *GORMCategoryRepository {
	return &GORMCategoryRepository{db: db}
}

// GetAll retrieves every category ordered by name.
func (r *GORMCategoryRepository) GetAll() ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category by primary key.
func (r *GORMCategoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return &category, nil
}

// GetBySlug retrieves a category by its unique slug.
func (r *GORMCategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, "slug = ?", slug).Error; err != nil {
		return nil, fmt.Errorf("failed to get category by slug %s: %w", slug, err)
	}
	return &category, nil
}

// Create inserts a new category.
func (r *GORMCategoryRepository) Create(category *models.Category) error {
	if err := r.db.Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// UpdateFields applies a partial update to the category row.
func (r *GORMCategoryRepository) UpdateFields(id uint, fields map[string]any) error {
	res := r.db.Model(&models.Category{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update category %d: %w", id, res.Error)
	}
	return nil
}

// Delete removes a category by primary key.
func (r *GORMCategoryRepository) Delete(id uint) error {
	res := r.db.Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("category %d not found for deletion: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// DetachAnnonces nulls category_id on every annonce referencing the category.
func (r *GORMCategoryRepository) DetachAnnonces(id uint) error {
	err := r.db.Model(&models.Annonce{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to detach annonces from category %d: %w", id, err)
	}
	return nil
}

// Transaction runs fn against a repository bound to a database transaction.
func (r *GORMCategoryRepository) Transaction(fn func(CategoryRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GORMCategoryRepository{db: tx})
	})
}
