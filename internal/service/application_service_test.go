package service

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
)

type fakeApplicationRepo struct {
	items  map[uint]*models.Application
	nextID uint
	// opportunities resolves the Opportunity preload on GetByID.
	opportunities *fakeOpportunityRepo
}

func newFakeApplicationRepo(opps *fakeOpportunityRepo) *fakeApplicationRepo {
	return &fakeApplicationRepo{
		items:         map[uint]*models.Application{},
		nextID:        1,
		opportunities: opps,
	}
}

func (r *fakeApplicationRepo) Create(app *models.Application) error {
	app.ID = r.nextID
	r.nextID++
	clone := *app
	r.items[app.ID] = &clone
	return nil
}

func (r *fakeApplicationRepo) GetByID(id uint) (*models.Application, error) {
	app, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *app
	if opp, err := r.opportunities.GetByID(clone.OpportunityID); err == nil {
		clone.Opportunity = *opp
	}
	return &clone, nil
}

func (r *fakeApplicationRepo) GetForOpportunity(opportunityID uint, status *string) ([]models.Application, error) {
	var result []models.Application
	for _, app := range r.items {
		if app.OpportunityID != opportunityID {
			continue
		}
		if status != nil && app.Status != *status {
			continue
		}
		result = append(result, *app)
	}
	return result, nil
}

func (r *fakeApplicationRepo) GetForApplicant(applicantID uint) ([]models.Application, error) {
	var result []models.Application
	for _, app := range r.items {
		if app.ApplicantID == applicantID {
			result = append(result, *app)
		}
	}
	return result, nil
}

func (r *fakeApplicationRepo) ExistsForApplicant(opportunityID, applicantID uint) (bool, error) {
	for _, app := range r.items {
		if app.OpportunityID == opportunityID && app.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeApplicationRepo) Update(app *models.Application) error {
	if _, ok := r.items[app.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *app
	r.items[app.ID] = &clone
	return nil
}

func (r *fakeApplicationRepo) CountByStatus() (map[string]int64, error) {
	counts := map[string]int64{}
	for _, app := range r.items {
		counts[app.Status]++
	}
	return counts, nil
}

// publishedWithForm seeds a published opportunity owned by user 1, carrying
// a one-page form with a required text question "q1".
func publishedWithForm(t *testing.T, repo *fakeOpportunityRepo, settings models.FormSettings) *models.Opportunity {
	t.Helper()

	forms := NewFormService(repo, nil)
	svc := newOpportunityService(repo, nil)

	opp, err := svc.Create(1, publishableRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	form := forms.NewForm("Apply")
	question, err := forms.AddQuestion(&form, form.Pages[0].ID, models.QuestionText)
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	questionID := question.ID
	form.Pages[0].Question(questionID).Required = true
	form.Settings = settings

	if err := forms.SaveForm(opp.ID, 1, false, form); err != nil {
		t.Fatalf("SaveForm: %v", err)
	}
	if _, err := svc.Publish(opp.ID, 1, false); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	stored, _ := repo.GetByID(opp.ID)
	return stored
}

func requiredQuestionID(opp *models.Opportunity) string {
	return opp.Form.Pages[0].Questions[0].ID
}

func TestSubmitRecordsFlattenedAnswers(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	appRepo := newFakeApplicationRepo(oppRepo)
	opp := publishedWithForm(t, oppRepo, models.FormSettings{})

	svc := NewApplicationService(appRepo, oppRepo, NewFormService(oppRepo, nil))

	application, err := svc.Submit(opp.ID, 2, models.SubmitApplicationRequest{
		Answers: map[string]interface{}{requiredQuestionID(opp): "My essay"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if application.Status != models.ApplicationStatusPending {
		t.Errorf("status = %q, want pending", application.Status)
	}
	if len(application.Answers) != 1 {
		t.Fatalf("answers = %v", application.Answers)
	}
	answer := application.Answers[0]
	if answer.QuestionID != requiredQuestionID(opp) || answer.Answer != "My essay" || !answer.Required {
		t.Errorf("flattened answer = %+v", answer)
	}
}

func TestSubmitRejectsMissingRequiredAnswer(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	appRepo := newFakeApplicationRepo(oppRepo)
	opp := publishedWithForm(t, oppRepo, models.FormSettings{})

	svc := NewApplicationService(appRepo, oppRepo, NewFormService(oppRepo, nil))

	_, err := svc.Submit(opp.ID, 2, models.SubmitApplicationRequest{
		Answers: map[string]interface{}{requiredQuestionID(opp): "   "},
	})

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ValidationAnswerRequired {
		t.Fatalf("expected answer-required error, got %v", err)
	}
	if len(appErr.Fields) != 1 || appErr.Fields[0].QuestionID != requiredQuestionID(opp) {
		t.Errorf("field errors = %+v", appErr.Fields)
	}
}

func TestSubmitRequiresEmailWhenCollected(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	appRepo := newFakeApplicationRepo(oppRepo)
	opp := publishedWithForm(t, oppRepo, models.FormSettings{CollectEmail: true})

	svc := NewApplicationService(appRepo, oppRepo, NewFormService(oppRepo, nil))
	answers := map[string]interface{}{requiredQuestionID(opp): "answer"}

	_, err := svc.Submit(opp.ID, 2, models.SubmitApplicationRequest{Answers: answers})
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ValidationEmailRequired {
		t.Fatalf("expected email-required error, got %v", err)
	}

	if _, err := svc.Submit(opp.ID, 2, models.SubmitApplicationRequest{
		Email:   "student@example.com",
		Answers: answers,
	}); err != nil {
		t.Fatalf("Submit with email: %v", err)
	}
}

func TestSubmitBlocksDuplicateByDefault(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	appRepo := newFakeApplicationRepo(oppRepo)
	opp := publishedWithForm(t, oppRepo, models.FormSettings{})

	svc := NewApplicationService(appRepo, oppRepo, NewFormService(oppRepo, nil))
	req := models.SubmitApplicationRequest{
		Answers: map[string]interface{}{requiredQuestionID(opp): "answer"},
	}

	if _, err := svc.Submit(opp.ID, 2, req); err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	_, err := svc.Submit(opp.ID, 2, req)
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ValidationDuplicateSubmission {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestSubmitAllowsDuplicateWhenEnabled(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	appRepo := newFakeApplicationRepo(oppRepo)
	opp := publishedWithForm(t, oppRepo, models.FormSettings{AllowMultipleSubmissions: true})

	svc := NewApplicationService(appRepo, oppRepo, NewFormService(oppRepo, nil))
	req := models.SubmitApplicationRequest{
		Answers: map[string]interface{}{requiredQuestionID(opp): "answer"},
	}

	if _, err := svc.Submit(opp.ID, 2, req); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if _, err := svc.Submit(opp.ID, 2, req); err != nil {
		t.Fatalf("second Submit: %v", err)
	}
}

func TestSubmitRejectsDraftListing(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	appRepo := newFakeApplicationRepo(oppRepo)

	svc := newOpportunityService(oppRepo, nil)
	opp, _ := svc.Create(1, publishableRequest())

	applications := NewApplicationService(appRepo, oppRepo, NewFormService(oppRepo, nil))
	_, err := applications.Submit(opp.ID, 2, models.SubmitApplicationRequest{})

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.NotFoundOpportunity {
		t.Fatalf("expected not-found for draft listing, got %v", err)
	}
}

func TestUpdateStatusOwnerGate(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	appRepo := newFakeApplicationRepo(oppRepo)
	opp := publishedWithForm(t, oppRepo, models.FormSettings{})

	svc := NewApplicationService(appRepo, oppRepo, NewFormService(oppRepo, nil))
	application, err := svc.Submit(opp.ID, 2, models.SubmitApplicationRequest{
		Answers: map[string]interface{}{requiredQuestionID(opp): "answer"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// The applicant themselves cannot review.
	_, err = svc.UpdateStatus(application.ID, 2, false, models.UpdateApplicationStatusRequest{
		Status: models.ApplicationStatusAccepted,
	})
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.PermissionNotOwner {
		t.Fatalf("expected ownership error, got %v", err)
	}

	updated, err := svc.UpdateStatus(application.ID, 1, false, models.UpdateApplicationStatusRequest{
		Status:     models.ApplicationStatusAccepted,
		ReviewNote: "Strong essay",
	})
	if err != nil {
		t.Fatalf("UpdateStatus as owner: %v", err)
	}
	if updated.Status != models.ApplicationStatusAccepted || updated.ReviewNote != "Strong essay" {
		t.Errorf("updated = %+v", updated)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	oppRepo := newFakeOpportunityRepo()
	appRepo := newFakeApplicationRepo(oppRepo)
	svc := NewApplicationService(appRepo, oppRepo, NewFormService(oppRepo, nil))

	_, err := svc.UpdateStatus(1, 1, true, models.UpdateApplicationStatusRequest{Status: "archived"})
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.ValidationInvalidStatus {
		t.Fatalf("expected invalid-status error, got %v", err)
	}
}
