package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"annonces/internal/models"

	"gorm.io/gorm"
)

// MockAnnonceRepository is an in-memory implementation of AnnonceRepository.
type MockAnnonceRepository struct {
	annonces map[uint]models.Annonce
	nextID   uint
	mu       sync.RWMutex
}

// NewMockAnnonceRepository creates a new instance of MockAnnonceRepository.
func NewMockAnnonceRepository() *MockAnnonceRepository {
	return &MockAnnonceRepository{
		annonces: make(map[uint]models.Annonce),
		nextID:   1,
	}
}

func matches(a models.Annonce, p AnnonceSearchParams) bool {
	if p.Search != "" {
		needle := strings.ToLower(p.Search)
		if !strings.Contains(strings.ToLower(a.Title), needle) &&
			!strings.Contains(strings.ToLower(a.Description), needle) {
			return false
		}
	}
	if p.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *p.CategoryID) {
		return false
	}
	if p.UserID != "" && (a.UserID == nil || *a.UserID != p.UserID) {
		return false
	}
	if p.Status != "" && a.Status != p.Status {
		return false
	}
	return true
}

// Search filters, sorts newest first and pages the in-memory set.
func (r *MockAnnonceRepository) Search(p AnnonceSearchParams) ([]models.Annonce, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []models.Annonce
	for _, a := range r.annonces {
		if matches(a, p) {
			all = append(all, a)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// GetByID returns an annonce by its ID.
func (r *MockAnnonceRepository) GetByID(id uint) (*models.Annonce, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	annonce, ok := r.annonces[id]
	if !ok {
		return nil, fmt.Errorf("annonce %d: %w", id, gorm.ErrRecordNotFound)
	}
	return &annonce, nil
}

// Create adds a new annonce, assigning the next free ID.
func (r *MockAnnonceRepository) Create(annonce *models.Annonce) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if annonce.ID == 0 {
		annonce.ID = r.nextID
		r.nextID++
	}
	if annonce.Status == "" {
		annonce.Status = models.StatusDraft
	}
	r.annonces[annonce.ID] = *annonce
	return nil
}

// UpdateFields applies a partial update to an annonce.
func (r *MockAnnonceRepository) UpdateFields(id uint, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	annonce, ok := r.annonces[id]
	if !ok {
		return fmt.Errorf("annonce %d: %w", id, gorm.ErrRecordNotFound)
	}
	for k, v := range fields {
		switch k {
		case "title":
			annonce.Title = v.(string)
		case "description":
			annonce.Description = v.(string)
		case "price":
			annonce.Price = v.(*float64)
		case "filepath":
			annonce.Filepath = v.(string)
		case "status":
			annonce.Status = v.(string)
		case "admin_comment":
			c := v.(string)
			annonce.AdminComment = &c
		case "category_id":
			annonce.CategoryID = v.(*uint)
		}
	}
	r.annonces[id] = annonce
	return nil
}

// Delete removes an annonce by its ID.
func (r *MockAnnonceRepository) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.annonces[id]; !ok {
		return fmt.Errorf("annonce %d: %w", id, gorm.ErrRecordNotFound)
	}
	delete(r.annonces, id)
	return nil
}

// Transaction runs fn directly; the mock has no transactional scope.
func (r *MockAnnonceRepository) Transaction(fn func(AnnonceRepository) error) error {
	return fn(r)
}
