package repositories

import "annonces/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	// GetByToken resolves the user currently holding the exact session
	// token, if any. Token verification depends on this lookup: a signed
	// token with no matching row is a logged-out session.
	GetByToken(token string) (*models.User, error)
	Update(user *models.User) error
	UpdateFields(id string, fields map[string]any) error
	Transaction(fn func(UserRepository) error) error
}
