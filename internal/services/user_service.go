package services

import (
	"annonces/internal/apierror"
	"annonces/internal/models"
	"annonces/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// ProfileInput carries the writable profile fields; nil means absent.
type ProfileInput struct {
	Firstname     *string
	Lastname      *string
	PhoneNumber   *string
	Address       *string
	ZipCode       *string
	City          *string
	ProfilPicture *string
}

// UserService handles profile management for the authenticated user.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetProfile retrieves the user's own profile.
func (s *UserService) GetProfile(userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, apierror.FromRead(err, "User not found", "Error while fetching profile")
	}
	return user, nil
}

// UpdateProfile applies a partial update to the user's profile fields.
func (s *UserService) UpdateProfile(userID string, input ProfileInput) (*models.User, error) {
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return nil, apierror.FromRead(err, "User not found", "Error while fetching profile")
	}

	fields := map[string]any{}
	if input.Firstname != nil {
		fields["firstname"] = *input.Firstname
	}
	if input.Lastname != nil {
		fields["lastname"] = *input.Lastname
	}
	if input.PhoneNumber != nil {
		fields["phone_number"] = *input.PhoneNumber
	}
	if input.Address != nil {
		fields["address"] = *input.Address
	}
	if input.ZipCode != nil {
		fields["zip_code"] = *input.ZipCode
	}
	if input.City != nil {
		fields["city"] = *input.City
	}
	if input.ProfilPicture != nil {
		fields["profil_picture"] = *input.ProfilPicture
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(userID, fields); err != nil {
			return nil, apierror.BadRequest("Error while updating profile", err.Error())
		}
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, apierror.Internal("Error while fetching profile")
	}
	return user, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *UserService) ChangePassword(userID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return apierror.BadRequest("Current and new password are required", nil)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return apierror.FromRead(err, "User not found", "Error while changing password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return apierror.Unauthorized("Current password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apierror.Internal("Error while changing password")
	}

	if err := s.userRepo.UpdateFields(userID, map[string]any{"password": string(hashed)}); err != nil {
		return apierror.Internal("Error while changing password")
	}
	return nil
}
