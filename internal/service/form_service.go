package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/pkg/cache"
)

// FormService implements the builder operations on an opportunity's
// application form and the renderer-side answer validation. Builder mutations
// operate on the in-memory tree and replace values wholesale; persistence
// happens once, through SaveForm.
type FormService struct {
	opportunityRepo repository.OpportunityRepository
	cache           *cache.Cache
}

func NewFormService(opportunityRepo repository.OpportunityRepository, cache *cache.Cache) *FormService {
	return &FormService{
		opportunityRepo: opportunityRepo,
		cache:           cache,
	}
}

// NewForm builds the initial single-page form the builder opens with.
func (s *FormService) NewForm(title string) models.ApplicationForm {
	return models.ApplicationForm{
		ID:    uuid.NewString(),
		Title: title,
		Pages: []models.FormPage{
			{
				ID:    uuid.NewString(),
				Title: "Page 1",
			},
		},
		Settings: models.FormSettings{
			ShowProgressBar: true,
		},
	}
}

func (s *FormService) AddPage(form *models.ApplicationForm) *models.FormPage {
	page := models.FormPage{
		ID:    uuid.NewString(),
		Title: fmt.Sprintf("Page %d", len(form.Pages)+1),
	}
	form.Pages = append(form.Pages, page)
	return &form.Pages[len(form.Pages)-1]
}

// DeletePage removes a page. Deleting the last remaining page is refused; a
// page holding zero questions is deletable like any other.
func (s *FormService) DeletePage(form *models.ApplicationForm, pageID string) error {
	if len(form.Pages) <= 1 {
		return apperrors.New(apperrors.ValidationLastPage)
	}

	pages := make([]models.FormPage, 0, len(form.Pages)-1)
	found := false
	for _, page := range form.Pages {
		if page.ID == pageID {
			found = true
			continue
		}
		pages = append(pages, page)
	}
	if !found {
		return apperrors.New(apperrors.NotFoundForm)
	}

	form.Pages = pages
	return nil
}

// UpdatePage replaces a page value inside the form, matching by id.
func (s *FormService) UpdatePage(form *models.ApplicationForm, page models.FormPage) error {
	for i := range form.Pages {
		if form.Pages[i].ID == page.ID {
			form.Pages[i] = page
			return nil
		}
	}
	return apperrors.New(apperrors.NotFoundForm)
}

// AddQuestion appends a question of the given type with type-dependent
// defaults and returns it.
func (s *FormService) AddQuestion(form *models.ApplicationForm, pageID, questionType string) (*models.FormQuestion, error) {
	if !models.ValidQuestionType(questionType) {
		return nil, apperrors.New(apperrors.ValidationQuestionType)
	}

	page := form.Page(pageID)
	if page == nil {
		return nil, apperrors.New(apperrors.NotFoundForm)
	}

	question := models.FormQuestion{
		ID:    uuid.NewString(),
		Type:  questionType,
		Title: "Untitled question",
	}

	switch {
	case models.QuestionHasOptions(questionType):
		question.Options = []string{"Option 1"}
	case models.QuestionHasFile(questionType):
		question.MaxFileSize = 5
		question.FileTypes = defaultFileTypes(questionType)
	default:
		question.Placeholder = "Your answer"
	}

	page.Questions = append(page.Questions, question)
	return &page.Questions[len(page.Questions)-1], nil
}

func defaultFileTypes(questionType string) []string {
	switch questionType {
	case models.QuestionImage:
		return []string{".jpg", ".jpeg", ".png", ".webp"}
	case models.QuestionVideo:
		return []string{".mp4", ".mov"}
	default:
		return []string{".pdf", ".doc", ".docx"}
	}
}

const (
	MoveUp   = "up"
	MoveDown = "down"
)

// MoveQuestion swaps a question with its neighbor. Moving the first question
// up or the last question down is a no-op.
func (s *FormService) MoveQuestion(form *models.ApplicationForm, pageID, questionID, direction string) error {
	page := form.Page(pageID)
	if page == nil {
		return apperrors.New(apperrors.NotFoundForm)
	}

	index := -1
	for i := range page.Questions {
		if page.Questions[i].ID == questionID {
			index = i
			break
		}
	}
	if index < 0 {
		return apperrors.New(apperrors.NotFoundForm)
	}

	switch direction {
	case MoveUp:
		if index == 0 {
			return nil
		}
		page.Questions[index-1], page.Questions[index] = page.Questions[index], page.Questions[index-1]
	case MoveDown:
		if index == len(page.Questions)-1 {
			return nil
		}
		page.Questions[index], page.Questions[index+1] = page.Questions[index+1], page.Questions[index]
	default:
		return apperrors.New(apperrors.ValidationInvalidFormat)
	}

	return nil
}

// DuplicateQuestion inserts a copy of the question right after the original,
// with a fresh id and a " (Copy)" title suffix.
func (s *FormService) DuplicateQuestion(form *models.ApplicationForm, pageID, questionID string) (*models.FormQuestion, error) {
	page := form.Page(pageID)
	if page == nil {
		return nil, apperrors.New(apperrors.NotFoundForm)
	}

	index := -1
	for i := range page.Questions {
		if page.Questions[i].ID == questionID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, apperrors.New(apperrors.NotFoundForm)
	}

	clone := page.Questions[index]
	clone.ID = uuid.NewString()
	clone.Title = clone.Title + " (Copy)"
	clone.Options = append([]string(nil), clone.Options...)
	clone.FileTypes = append([]string(nil), clone.FileTypes...)

	questions := make([]models.FormQuestion, 0, len(page.Questions)+1)
	questions = append(questions, page.Questions[:index+1]...)
	questions = append(questions, clone)
	questions = append(questions, page.Questions[index+1:]...)
	page.Questions = questions

	return &page.Questions[index+1], nil
}

// ValidateStructure rejects malformed builder output before it is persisted.
func (s *FormService) ValidateStructure(form models.ApplicationForm) error {
	if len(form.Pages) == 0 {
		return apperrors.New(apperrors.ValidationFormStructure)
	}

	seen := make(map[string]struct{})
	for _, page := range form.Pages {
		if page.ID == "" {
			return apperrors.New(apperrors.ValidationFormStructure)
		}
		for _, question := range page.Questions {
			if question.ID == "" || !models.ValidQuestionType(question.Type) {
				return apperrors.New(apperrors.ValidationFormStructure)
			}
			if _, dup := seen[question.ID]; dup {
				return apperrors.New(apperrors.ValidationFormStructure)
			}
			seen[question.ID] = struct{}{}
			if models.QuestionHasOptions(question.Type) && len(question.Options) == 0 {
				return apperrors.New(apperrors.ValidationFormStructure)
			}
		}
	}
	return nil
}

// SaveForm persists the whole tree onto the owning opportunity.
func (s *FormService) SaveForm(opportunityID, requesterID uint, manageAll bool, form models.ApplicationForm) error {
	if err := s.ValidateStructure(form); err != nil {
		return err
	}

	opportunity, err := s.opportunityRepo.GetByID(opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.NotFoundOpportunity)
		}
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	if opportunity.OwnerID != requesterID && !manageAll {
		return apperrors.New(apperrors.PermissionNotOwner)
	}

	if form.ID == "" {
		form.ID = uuid.NewString()
	}

	opportunity.Form = form
	if err := s.opportunityRepo.Update(opportunity); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	if s.cache != nil {
		_ = s.cache.InvalidateOpportunity(opportunityID)
	}
	return nil
}

// ValidatePage checks the answers of one page: every required question must
// have a non-empty answer. Failures are keyed by question id, one entry per
// failing question.
func (s *FormService) ValidatePage(form models.ApplicationForm, pageID string, answers map[string]interface{}) []apperrors.FieldError {
	page := form.Page(pageID)
	if page == nil {
		return []apperrors.FieldError{{QuestionID: pageID, Message: "page not found"}}
	}
	return validateQuestions(page.Questions, answers)
}

// ValidateAll re-validates every page at submit time and returns the answers
// flattened in page order.
func (s *FormService) ValidateAll(form models.ApplicationForm, answers map[string]interface{}) (models.AnswerList, []apperrors.FieldError) {
	var flattened models.AnswerList
	var fieldErrors []apperrors.FieldError

	for _, page := range form.Pages {
		fieldErrors = append(fieldErrors, validateQuestions(page.Questions, answers)...)
		for _, question := range page.Questions {
			flattened = append(flattened, models.Answer{
				QuestionID:    question.ID,
				QuestionTitle: question.Title,
				QuestionType:  question.Type,
				Answer:        answers[question.ID],
				Required:      question.Required,
			})
		}
	}

	return flattened, fieldErrors
}

func validateQuestions(questions []models.FormQuestion, answers map[string]interface{}) []apperrors.FieldError {
	var fieldErrors []apperrors.FieldError
	for _, question := range questions {
		if !question.Required {
			continue
		}
		if answerEmpty(answers[question.ID]) {
			fieldErrors = append(fieldErrors, apperrors.FieldError{
				QuestionID: question.ID,
				Message:    fmt.Sprintf("%q is required", question.Title),
			})
		}
	}
	return fieldErrors
}

// answerEmpty implements the required-field rule: absent, empty string, or
// empty array all count as unanswered.
func answerEmpty(answer interface{}) bool {
	switch v := answer.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
