package services

import (
	"annonces/internal/apierror"
	"annonces/internal/models"
	"annonces/internal/repositories"
)

// CategoryInput carries the writable category fields; nil means absent.
type CategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
}

// CategoryService handles business logic for categories.
type CategoryService struct {
	categoryRepo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryRepo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// GetAll retrieves every category ordered by name.
func (s *CategoryService) GetAll() ([]models.Category, error) {
	categories, err := s.categoryRepo.GetAll()
	if err != nil {
		return nil, apierror.Internal("Error while fetching categories")
	}
	return categories, nil
}

// GetBySlug retrieves a category by its slug.
func (s *CategoryService) GetBySlug(slug string) (*models.Category, error) {
	category, err := s.categoryRepo.GetBySlug(slug)
	if err != nil {
		return nil, apierror.FromRead(err, "Category not found", "Error while fetching category")
	}
	return category, nil
}

// Create inserts a new category. A name or slug collision is a conflict.
func (s *CategoryService) Create(input CategoryInput) (*models.Category, error) {
	category := &models.Category{}
	if input.Name != nil {
		category.Name = *input.Name
	}
	if input.Slug != nil {
		category.Slug = *input.Slug
	}
	if input.Description != nil {
		category.Description = *input.Description
	}

	if err := s.categoryRepo.Create(category); err != nil {
		return nil, apierror.FromWrite(err,
			"Error while creating category",
			"A category with this name or slug already exists")
	}
	return category, nil
}

// Update applies a partial update to a category.
func (s *CategoryService) Update(id uint, input CategoryInput) (*models.Category, error) {
	if _, err := s.categoryRepo.GetByID(id); err != nil {
		return nil, apierror.FromRead(err, "Category not found", "Error while fetching category")
	}

	fields := map[string]any{}
	if input.Name != nil {
		fields["name"] = *input.Name
	}
	if input.Slug != nil {
		fields["slug"] = *input.Slug
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}

	if len(fields) > 0 {
		if err := s.categoryRepo.UpdateFields(id, fields); err != nil {
			return nil, apierror.FromWrite(err,
				"Error while updating category",
				"A category with this name or slug already exists")
		}
	}

	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, apierror.Internal("Error while fetching category")
	}
	return category, nil
}

// Delete removes a category inside a transaction, first detaching every
// annonce that references it. Annonces survive with a null category.
func (s *CategoryService) Delete(id uint) error {
	return s.categoryRepo.Transaction(func(repo repositories.CategoryRepository) error {
		if _, err := repo.GetByID(id); err != nil {
			return apierror.FromRead(err, "Category not found", "Error while fetching category")
		}
		if err := repo.DetachAnnonces(id); err != nil {
			return apierror.BadRequest("Error while deleting category", err.Error())
		}
		if err := repo.Delete(id); err != nil {
			return apierror.BadRequest("Error while deleting category", err.Error())
		}
		return nil
	})
}
