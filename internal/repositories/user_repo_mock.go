package repositories

import (
	"fmt"
	"sync"

	"annonces/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MockUserRepository is an in-memory implementation of UserRepository.
type MockUserRepository struct {
	users map[string]models.User
	mu    sync.RWMutex
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]models.User)}
}

// Create adds a new user, generating a UUID when none is set.
func (r *MockUserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	for _, u := range r.users {
		if u.Username == user.Username {
			return fmt.Errorf("failed to create user: %w", gorm.ErrDuplicatedKey)
		}
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	r.users[user.ID] = *user
	return nil
}

// GetByID returns a user by their ID.
func (r *MockUserRepository) GetByID(id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, gorm.ErrRecordNotFound)
	}
	return &user, nil
}

// GetByUsername returns a user by their username.
func (r *MockUserRepository) GetByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, gorm.ErrRecordNotFound)
}

// GetByToken returns the user currently holding the session token.
func (r *MockUserRepository) GetByToken(token string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Token != nil && *u.Token == token {
			user := u
			return &user, nil
		}
	}
	return nil, fmt.Errorf("user by token: %w", gorm.ErrRecordNotFound)
}

// Update replaces a stored user.
func (r *MockUserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, gorm.ErrRecordNotFound)
	}
	r.users[user.ID] = *user
	return nil
}

// UpdateFields applies a partial update to a user.
func (r *MockUserRepository) UpdateFields(id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, gorm.ErrRecordNotFound)
	}
	for k, v := range fields {
		switch k {
		case "firstname":
			user.Firstname = v.(string)
		case "lastname":
			user.Lastname = v.(string)
		case "phone_number":
			user.PhoneNumber = v.(string)
		case "address":
			user.Address = v.(string)
		case "zip_code":
			user.ZipCode = v.(string)
		case "city":
			user.City = v.(string)
		case "profil_picture":
			user.ProfilPicture = v.(string)
		case "password":
			user.Password = v.(string)
		}
	}
	r.users[id] = user
	return nil
}

// Transaction runs fn directly; the mock has no transactional scope.
func (r *MockUserRepository) Transaction(fn func(UserRepository) error) error {
	return fn(r)
}
