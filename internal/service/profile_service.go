package service

import (
	"strings"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/pkg/validator"
)

type ProfileService struct {
	userRepo repository.UserRepository
	uploads  *UploadService
}

func NewProfileService(userRepo repository.UserRepository, uploads *UploadService) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		uploads:  uploads,
	}
}

// ProfileCompletion scores how filled-in a profile is. Each of the five
// profile fields is worth 20 percent.
type ProfileCompletion struct {
	Percentage    int      `json:"percentage"`
	MissingFields []string `json:"missing_fields"`
	Message       string   `json:"message"`
}

type completionField struct {
	label string
	value func(*models.User) string
}

var completionFields = []completionField{
	{"Display Name", func(u *models.User) string { return u.DisplayName }},
	{"Profile Picture", func(u *models.User) string { return u.PhotoURL }},
	{"Bio", func(u *models.User) string { return u.Bio }},
	{"Location", func(u *models.User) string { return u.Location }},
	{"Website", func(u *models.User) string { return u.Website }},
}

func (s *ProfileService) Completion(user *models.User) ProfileCompletion {
	var missing []string
	filled := 0
	for _, field := range completionFields {
		if strings.TrimSpace(field.value(user)) == "" {
			missing = append(missing, field.label)
		} else {
			filled++
		}
	}

	percentage := filled * 100 / len(completionFields)

	var message string
	switch {
	case percentage == 100:
		message = "Your profile is complete."
	case percentage >= 80:
		message = "Almost there, one field to go."
	case percentage >= 60:
		message = "Good progress, a couple of fields left."
	case percentage >= 40:
		message = "Halfway there, keep filling in your profile."
	default:
		message = "Complete your profile so organizers can get to know you."
	}

	return ProfileCompletion{
		Percentage:    percentage,
		MissingFields: missing,
		Message:       message,
	}
}

func (s *ProfileService) UpdateProfile(user *models.User, req models.UpdateProfileRequest) (*models.User, error) {
	if req.DisplayName != nil {
		user.DisplayName = validator.SanitizeString(strings.TrimSpace(*req.DisplayName))
	}
	if req.Bio != nil {
		user.Bio = validator.SanitizeString(*req.Bio)
	}
	if req.Location != nil {
		user.Location = validator.SanitizeString(strings.TrimSpace(*req.Location))
	}
	if req.Website != nil {
		website := strings.TrimSpace(*req.Website)
		if website != "" && !validator.ValidateURL(website) {
			return nil, apperrors.New(apperrors.ValidationInvalidFormat)
		}
		user.Website = website
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return user, nil
}

// UpdatePicture stores the uploaded avatar and records its URL.
func (s *ProfileService) UpdatePicture(user *models.User, filename string, data []byte) (*models.User, error) {
	url, err := s.uploads.SaveAvatar(user.ID, filename, data)
	if err != nil {
		return nil, err
	}

	user.PhotoURL = url
	if err := s.userRepo.Update(user); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return user, nil
}

// RemovePicture deletes the stored avatar and clears the profile URL.
func (s *ProfileService) RemovePicture(user *models.User) (*models.User, error) {
	if user.PhotoURL == "" {
		return user, nil
	}

	if strings.HasPrefix(user.PhotoURL, "/uploads/") {
		if err := s.uploads.DeleteAvatar(user.PhotoURL); err != nil {
			return nil, err
		}
	}

	user.PhotoURL = ""
	if err := s.userRepo.Update(user); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return user, nil
}

func (s *ProfileService) UpdateNotificationSettings(user *models.User, settings map[string]interface{}) error {
	user.Notifications = settings
	if err := s.userRepo.Update(user); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return nil
}

func (s *ProfileService) UpdatePrivacySettings(user *models.User, settings map[string]interface{}) error {
	user.Privacy = settings
	if err := s.userRepo.Update(user); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return nil
}
