package services

import (
	"annonces/internal/apierror"
	"annonces/internal/models"
	"annonces/internal/repositories"
	"annonces/pkg/mailer"

	"github.com/rs/zerolog"
)

// AnnonceInput carries the writable annonce fields of a create or update
// request. Nil pointers mean "field absent"; absent fields are left
// untouched on update.
type AnnonceInput struct {
	Title        *string
	Description  *string
	Price        *float64
	Filepath     *string
	Status       *string
	CategoryID   *uint
	AdminComment *string
}

// AnnonceService handles business logic for annonces: search, moderation
// and the best-effort admin notification on creation.
type AnnonceService struct {
	annonceRepo repositories.AnnonceRepository
	notifier    mailer.Notifier
	adminEmail  string
	log         zerolog.Logger
}

// NewAnnonceService creates a new AnnonceService. notifier may be nil, in
// which case creation skips the mail notification.
func NewAnnonceService(annonceRepo repositories.AnnonceRepository, notifier mailer.Notifier, adminEmail string, log zerolog.Logger) *AnnonceService {
	return &AnnonceService{
		annonceRepo: annonceRepo,
		notifier:    notifier,
		adminEmail:  adminEmail,
		log:         log,
	}
}

// Search returns one page of annonces matching the params plus the total
// match count. Read failures are masked behind a generic internal error.
func (s *AnnonceService) Search(p repositories.AnnonceSearchParams) ([]models.Annonce, int64, error) {
	annonces, total, err := s.annonceRepo.Search(p)
	if err != nil {
		return nil, 0, apierror.Internal("Error while searching annonces")
	}
	return annonces, total, nil
}

// GetByID retrieves one annonce with its category and owner.
func (s *AnnonceService) GetByID(id uint) (*models.Annonce, error) {
	annonce, err := s.annonceRepo.GetByID(id)
	if err != nil {
		return nil, apierror.FromRead(err, "Annonce not found", "Error while fetching annonce")
	}
	return annonce, nil
}

// Create persists a new annonce inside a transaction and, once committed,
// notifies the admin by mail. The notification is best effort: its outcome
// is returned as metadata and never affects the created annonce.
func (s *AnnonceService) Create(input AnnonceInput, user *models.User) (*models.Annonce, bool, error) {
	annonce := &models.Annonce{
		Status:     models.StatusDraft,
		CategoryID: input.CategoryID,
	}
	if input.Title != nil {
		annonce.Title = *input.Title
	}
	if input.Description != nil {
		annonce.Description = *input.Description
	}
	if input.Price != nil {
		annonce.Price = input.Price
	}
	if input.Filepath != nil {
		annonce.Filepath = *input.Filepath
	}
	if user != nil {
		id := user.ID
		annonce.UserID = &id
	}
	// Status and moderation comment are admin-only; anyone else's values
	// are dropped silently.
	if user != nil && user.IsAdmin() {
		if input.Status != nil {
			if !models.ValidStatus(*input.Status) {
				return nil, false, apierror.BadRequest("Invalid annonce status", nil)
			}
			annonce.Status = *input.Status
		}
		annonce.AdminComment = input.AdminComment
	}

	err := s.annonceRepo.Transaction(func(repo repositories.AnnonceRepository) error {
		return repo.Create(annonce)
	})
	if err != nil {
		return nil, false, apierror.BadRequest("Error while creating annonce", err.Error())
	}

	mailSent := s.notifyCreated()
	return annonce, mailSent, nil
}

// notifyCreated dispatches the new-annonce mail. Failure is logged only.
func (s *AnnonceService) notifyCreated() bool {
	if s.notifier == nil || s.adminEmail == "" {
		return false
	}
	err := s.notifier.Send(
		s.adminEmail,
		"Nouvelle Annonce",
		"A new annonce has been created.",
		"<html><h1>New annonce</h1><p>A new annonce has been created.</p></html>",
	)
	if err != nil {
		s.log.Warn().Err(err).Msg("mail notification failed")
		return false
	}
	return true
}

// Update applies a partial update inside a transaction. Status and
// admin_comment changes from non-admins are ignored, not rejected.
func (s *AnnonceService) Update(id uint, input AnnonceInput, user *models.User) (*models.Annonce, error) {
	var updated *models.Annonce

	err := s.annonceRepo.Transaction(func(repo repositories.AnnonceRepository) error {
		if _, err := repo.GetByID(id); err != nil {
			return apierror.FromRead(err, "Annonce not found", "Error while fetching annonce")
		}

		fields := map[string]any{}
		if input.Title != nil {
			fields["title"] = *input.Title
		}
		if input.Description != nil {
			fields["description"] = *input.Description
		}
		if input.Price != nil {
			fields["price"] = input.Price
		}
		if input.Filepath != nil {
			fields["filepath"] = *input.Filepath
		}
		if input.CategoryID != nil {
			fields["category_id"] = input.CategoryID
		}
		if user.IsAdmin() {
			if input.Status != nil {
				if !models.ValidStatus(*input.Status) {
					return apierror.BadRequest("Invalid annonce status", nil)
				}
				fields["status"] = *input.Status
			}
			if input.AdminComment != nil {
				fields["admin_comment"] = *input.AdminComment
			}
		}

		if len(fields) > 0 {
			if err := repo.UpdateFields(id, fields); err != nil {
				return apierror.BadRequest("Error while updating annonce", err.Error())
			}
		}

		annonce, err := repo.GetByID(id)
		if err != nil {
			return apierror.Internal("Error while fetching annonce")
		}
		updated = annonce
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an annonce inside a transaction.
func (s *AnnonceService) Delete(id uint) error {
	return s.annonceRepo.Transaction(func(repo repositories.AnnonceRepository) error {
		if _, err := repo.GetByID(id); err != nil {
			return apierror.FromRead(err, "Annonce not found", "Error while fetching annonce")
		}
		if err := repo.Delete(id); err != nil {
			return apierror.BadRequest("Error while deleting annonce", err.Error())
		}
		return nil
	})
}
