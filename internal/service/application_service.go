package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/pkg/validator"
)

type ApplicationService struct {
	applicationRepo repository.ApplicationRepository
	opportunityRepo repository.OpportunityRepository
	forms           *FormService
}

func NewApplicationService(
	applicationRepo repository.ApplicationRepository,
	opportunityRepo repository.OpportunityRepository,
	forms *FormService,
) *ApplicationService {
	return &ApplicationService{
		applicationRepo: applicationRepo,
		opportunityRepo: opportunityRepo,
		forms:           forms,
	}
}

// Submit validates the full answer set against the opportunity's form and
// records the application. Per-page validation during filling is advisory;
// submission always re-checks everything.
func (s *ApplicationService) Submit(opportunityID, applicantID uint, req models.SubmitApplicationRequest) (*models.Application, error) {
	opp, err := s.opportunityRepo.GetByID(opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.NotFoundOpportunity)
		}
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	if !opp.IsPublished() {
		return nil, apperrors.New(apperrors.NotFoundOpportunity)
	}
	if opp.Form.IsEmpty() {
		return nil, apperrors.New(apperrors.NotFoundForm)
	}

	email := strings.TrimSpace(req.Email)
	if opp.Form.Settings.CollectEmail {
		if email == "" {
			return nil, apperrors.New(apperrors.ValidationEmailRequired)
		}
		if !validator.ValidateEmail(email) {
			return nil, apperrors.New(apperrors.ValidationInvalidFormat)
		}
	}

	if !opp.Form.Settings.AllowMultipleSubmissions {
		exists, err := s.applicationRepo.ExistsForApplicant(opportunityID, applicantID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
		}
		if exists {
			return nil, apperrors.New(apperrors.ValidationDuplicateSubmission)
		}
	}

	answers, fieldErrors := s.forms.ValidateAll(opp.Form, req.Answers)
	if len(fieldErrors) > 0 {
		appErr := apperrors.New(apperrors.ValidationAnswerRequired)
		appErr.Fields = fieldErrors
		return nil, appErr
	}

	application := &models.Application{
		OpportunityID: opportunityID,
		ApplicantID:   applicantID,
		Email:         email,
		Answers:       answers,
		Status:        models.ApplicationStatusPending,
	}

	if err := s.applicationRepo.Create(application); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return application, nil
}

// ListForOpportunity returns the submissions a reviewer sees. Only the
// listing owner and callers holding the review permission may review.
func (s *ApplicationService) ListForOpportunity(opportunityID, requesterID uint, canReview bool, status string) ([]models.Application, error) {
	opp, err := s.opportunityRepo.GetByID(opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.NotFoundOpportunity)
		}
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	if !canReview && opp.OwnerID != requesterID {
		return nil, apperrors.New(apperrors.PermissionNotOwner)
	}

	var statusFilter *string
	if status != "" {
		if !models.ValidApplicationStatus(status) {
			return nil, apperrors.New(apperrors.ValidationInvalidStatus)
		}
		statusFilter = &status
	}

	applications, err := s.applicationRepo.GetForOpportunity(opportunityID, statusFilter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return applications, nil
}

func (s *ApplicationService) ListMine(applicantID uint) ([]models.Application, error) {
	applications, err := s.applicationRepo.GetForApplicant(applicantID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return applications, nil
}

// UpdateStatus moves a submission through the review pipeline.
func (s *ApplicationService) UpdateStatus(applicationID, requesterID uint, canReview bool, req models.UpdateApplicationStatusRequest) (*models.Application, error) {
	if !models.ValidApplicationStatus(req.Status) {
		return nil, apperrors.New(apperrors.ValidationInvalidStatus)
	}

	application, err := s.applicationRepo.GetByID(applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.NotFoundApplication)
		}
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	if !canReview && application.Opportunity.OwnerID != requesterID {
		return nil, apperrors.New(apperrors.PermissionNotOwner)
	}

	application.Status = req.Status
	application.ReviewNote = strings.TrimSpace(req.ReviewNote)

	if err := s.applicationRepo.Update(application); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return application, nil
}

func (s *ApplicationService) CountByStatus() (map[string]int64, error) {
	counts, err := s.applicationRepo.CountByStatus()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return counts, nil
}
