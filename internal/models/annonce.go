package models

import "time"

// Annonce statuses. New annonces start as drafts; only admins move them
// between states.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusSuspended = "suspended"
)

// ValidStatus reports whether s is one of the known annonce statuses.
func ValidStatus(s string) bool {
	return s == StatusDraft || s == StatusPublished || s == StatusSuspended
}

// CategoryRef is the reduced category projection embedded in annonce
// responses.
type CategoryRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// TableName maps the projection onto the categories table.
func (CategoryRef) TableName() string { return "categories" }

// UserRef is the reduced owner projection embedded in annonce responses.
// Name only, never contact or account details.
type UserRef struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname,omitempty"`
	Lastname  string `json:"lastname,omitempty"`
}

// TableName maps the projection onto the users table.
func (UserRef) TableName() string { return "users" }

// Annonce represents a classified listing. Both the owner and the category
// are optional: the system tolerates orphan annonces, and deleting a
// category nulls the reference instead of cascading.
type Annonce struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	Title        string       `json:"title" gorm:"type:varchar(255);not null"`
	Description  string       `json:"description" gorm:"type:text"`
	Price        *float64     `json:"price"`
	Filepath     string       `json:"filepath,omitempty" gorm:"type:text"`
	Status       string       `json:"status" gorm:"type:varchar(20);default:draft;not null"`
	AdminComment *string      `json:"admin_comment,omitempty" gorm:"type:text"`
	CategoryID   *uint        `json:"category_id"`
	Category     *CategoryRef `json:"category,omitempty" gorm:"foreignKey:CategoryID;references:ID"`
	UserID       *string      `json:"user_id"`
	User         *UserRef     `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
