package services

import (
	"fmt"
	"strings"
	"time"

	"annonces/internal/apierror"
	"annonces/internal/models"
	"annonces/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login, logout and bearer token
// verification. A token is only valid while the user row still holds it, so
// logout revokes immediately regardless of the JWT expiry.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration
	// dummyHash is compared against when the username does not exist, so
	// login timing does not reveal which usernames are registered.
	dummyHash []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("dummy_password_for_timing"), bcrypt.DefaultCost)
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: time.Hour,
		dummyHash:  dummy,
	}
}

// Register hashes the password and creates the user inside a transaction.
func (s *AuthService) Register(user *models.User) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return apierror.Internal("Error while creating user")
	}
	user.Password = string(hashed)
	user.Role = models.RoleUser

	err = s.userRepo.Transaction(func(repo repositories.UserRepository) error {
		return repo.Create(user)
	})
	if err != nil {
		return apierror.BadRequest("Error while creating user", err.Error())
	}
	return nil
}

// Login checks the credentials and issues a fresh one-hour token, persisting
// it on the user row. Any previous session token is overwritten. Unknown
// usernames and wrong passwords produce the same generic failure.
func (s *AuthService) Login(username, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Burn a comparison anyway to keep timing uniform.
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, "", apierror.Unauthorized("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apierror.Unauthorized("Invalid credentials")
	}

	tokenString, err := s.issueToken(user)
	if err != nil {
		return nil, "", apierror.Internal("Error while generating token")
	}

	user.Token = &tokenString
	if err := s.userRepo.Update(user); err != nil {
		return nil, "", apierror.Internal("Error while saving session")
	}

	return user, tokenString, nil
}

// issueToken signs an HS256 JWT embedding the user id and role. The jti
// claim keeps back-to-back logins from producing the same token string,
// which would defeat the stored-token session overwrite.
func (s *AuthService) issueToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(s.tokenDurat).Unix(),
		"iat":  time.Now().Unix(),
		"jti":  uuid.NewString(),
	})
	return token.SignedString(s.jwtSecret)
}

// parseToken validates the signature and expiry of a bearer token.
func (s *AuthService) parseToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// StripBearer removes the conventional "Bearer " prefix when present; bare
// token values are accepted as-is.
func StripBearer(header string) string {
	return strings.TrimPrefix(header, "Bearer ")
}

// Authenticate verifies a bearer credential and resolves the owning user.
// Missing credential is 401; a bad signature, expiry, or a structurally valid
// token that no user row holds anymore (logged out) is 403.
func (s *AuthService) Authenticate(authHeader string) (*models.User, error) {
	if authHeader == "" {
		return nil, apierror.Unauthorized("No token provided")
	}
	tokenString := StripBearer(authHeader)

	if err := s.parseToken(tokenString); err != nil {
		return nil, apierror.Forbidden("Invalid or expired token")
	}

	user, err := s.userRepo.GetByToken(tokenString)
	if err != nil {
		return nil, apierror.Forbidden("Session expired")
	}
	return user, nil
}

// Logout revokes the presented token by clearing it from the user row.
func (s *AuthService) Logout(authHeader string) error {
	if authHeader == "" {
		return apierror.Unauthorized("No token provided")
	}
	tokenString := StripBearer(authHeader)

	if err := s.parseToken(tokenString); err != nil {
		return apierror.Forbidden("Invalid or expired token")
	}

	user, err := s.userRepo.GetByToken(tokenString)
	if err != nil {
		return apierror.Unauthorized("Session expired")
	}

	user.Token = nil
	if err := s.userRepo.Update(user); err != nil {
		return apierror.Internal("Error during logout")
	}
	return nil
}
