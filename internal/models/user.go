package models

import "time"

// Roles a user can hold. Admins may moderate annonces and manage categories.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account. The password hash and the current
// session token are never serialized in responses.
type User struct {
	ID            string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username      string `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Password      string `json:"-" gorm:"type:varchar(255);not null"`
	Firstname     string `json:"firstname,omitempty" gorm:"type:varchar(50)"`
	Lastname      string `json:"lastname,omitempty" gorm:"type:varchar(50)"`
	PhoneNumber   string `json:"phone_number,omitempty" gorm:"type:varchar(30)"`
	Address       string `json:"address,omitempty" gorm:"type:varchar(255)"`
	ZipCode       string `json:"zip_code,omitempty" gorm:"type:varchar(10)"`
	City          string `json:"city,omitempty" gorm:"type:varchar(100)"`
	ProfilPicture string `json:"profil_picture,omitempty" gorm:"type:text"`
	Role          string `json:"role" gorm:"type:varchar(10);default:user;not null"`
	// Token holds the single live session token. Login overwrites it,
	// logout clears it; nil means no active session.
	Token     *string   `json:"-" gorm:"index;type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
