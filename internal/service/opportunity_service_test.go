package service

import (
	"errors"
	"net/http"
	"testing"

	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/pkg/validator"
)

func init() {
	validator.Init()
}

type fakeOpportunityRepo struct {
	items  map[uint]*models.Opportunity
	nextID uint
}

func newFakeOpportunityRepo() *fakeOpportunityRepo {
	return &fakeOpportunityRepo{items: map[uint]*models.Opportunity{}, nextID: 1}
}

func (r *fakeOpportunityRepo) Create(opp *models.Opportunity) error {
	opp.ID = r.nextID
	r.nextID++
	clone := *opp
	r.items[opp.ID] = &clone
	return nil
}

func (r *fakeOpportunityRepo) GetByID(id uint) (*models.Opportunity, error) {
	opp, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *opp
	return &clone, nil
}

func (r *fakeOpportunityRepo) GetBySlug(slug string) (*models.Opportunity, error) {
	for _, opp := range r.items {
		if opp.Slug == slug {
			clone := *opp
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOpportunityRepo) GetAll(offset, limit int, filter repository.OpportunityFilter) ([]models.Opportunity, int64, error) {
	var result []models.Opportunity
	for _, opp := range r.items {
		if filter.Status != nil && opp.Status != *filter.Status {
			continue
		}
		if filter.OwnerID != nil && opp.OwnerID != *filter.OwnerID {
			continue
		}
		result = append(result, *opp)
	}
	return result, int64(len(result)), nil
}

func (r *fakeOpportunityRepo) GetAllPublished() ([]models.Opportunity, error) {
	status := models.OpportunityStatusPublished
	items, _, err := r.GetAll(0, 0, repository.OpportunityFilter{Status: &status})
	return items, err
}

func (r *fakeOpportunityRepo) Update(opp *models.Opportunity) error {
	if _, ok := r.items[opp.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	clone := *opp
	r.items[opp.ID] = &clone
	return nil
}

func (r *fakeOpportunityRepo) Delete(id uint) error {
	delete(r.items, id)
	return nil
}

func (r *fakeOpportunityRepo) ExistsBySlug(slug string) (bool, error) {
	_, err := r.GetBySlug(slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *fakeOpportunityRepo) IncrementViews(id uint) error {
	return r.AddViews(id, 1)
}

func (r *fakeOpportunityRepo) AddViews(id uint, count int64) error {
	if opp, ok := r.items[id]; ok {
		opp.Views += int(count)
	}
	return nil
}

func (r *fakeOpportunityRepo) CountByStatus() (map[string]int64, error) {
	counts := map[string]int64{}
	for _, opp := range r.items {
		counts[opp.Status]++
	}
	return counts, nil
}

func (r *fakeOpportunityRepo) CountByType() (map[string]int64, error) {
	counts := map[string]int64{}
	for _, opp := range r.items {
		counts[opp.Type]++
	}
	return counts, nil
}

func (r *fakeOpportunityRepo) GetTopViewed(limit int) ([]models.Opportunity, error) {
	return r.GetAllPublished()
}

type fakeIndexer struct {
	indexed []uint
	removed []uint
}

func (f *fakeIndexer) IndexOpportunity(opp *models.Opportunity) error {
	f.indexed = append(f.indexed, opp.ID)
	return nil
}

func (f *fakeIndexer) RemoveOpportunity(id uint) error {
	f.removed = append(f.removed, id)
	return nil
}

func newOpportunityService(repo repository.OpportunityRepository, indexer SearchIndexer) *OpportunityService {
	return NewOpportunityService(repo, NewModerationService(), indexer, nil)
}

func publishableRequest() models.CreateOpportunityRequest {
	return models.CreateOpportunityRequest{
		Title:     "Summer Research Fellowship",
		Type:      models.OpportunityTypeResearch,
		Organizer: "National Science Institute",
		Tags:      []string{"Research", "research", "Lab Science"},
		Description: "A ten week mentored research placement for high school " +
			"students interested in laboratory science. Participants join an " +
			"active research group and present their findings at the end.",
	}
}

func TestCreateStartsAsDraftWithSlug(t *testing.T) {
	repo := newFakeOpportunityRepo()
	svc := newOpportunityService(repo, nil)

	opp, err := svc.Create(1, publishableRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if opp.Status != models.OpportunityStatusDraft {
		t.Errorf("status = %q, want draft", opp.Status)
	}
	if opp.Slug != "summer-research-fellowship" {
		t.Errorf("slug = %q", opp.Slug)
	}
	if len(opp.Tags) != 2 {
		t.Errorf("tags = %v, want lowercased and deduplicated", opp.Tags)
	}
}

func TestCreateResolvesSlugCollision(t *testing.T) {
	repo := newFakeOpportunityRepo()
	svc := newOpportunityService(repo, nil)

	first, err := svc.Create(1, publishableRequest())
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := svc.Create(1, publishableRequest())
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}

	if second.Slug == first.Slug {
		t.Fatalf("slugs collide: %q", second.Slug)
	}
	if second.Slug != first.Slug+"-2" {
		t.Errorf("second slug = %q, want %q", second.Slug, first.Slug+"-2")
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc := newOpportunityService(newFakeOpportunityRepo(), nil)

	req := publishableRequest()
	req.Type = "hackathon"

	if _, err := svc.Create(1, req); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestPublishRejectionKeepsDraft(t *testing.T) {
	repo := newFakeOpportunityRepo()
	idx := &fakeIndexer{}
	svc := newOpportunityService(repo, idx)

	req := publishableRequest()
	req.Description = "Guaranteed admission, sign up now."
	opp, err := svc.Create(1, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Publish(opp.ID, 1, false)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Code != apperrors.PermissionModerationRejected {
		t.Errorf("code = %q", appErr.Code)
	}
	if appErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", appErr.StatusCode)
	}
	if len(appErr.Issues) == 0 {
		t.Error("expected non-empty issue list")
	}

	stored, _ := repo.GetByID(opp.ID)
	if stored.Status != models.OpportunityStatusDraft {
		t.Errorf("stored status = %q, want draft", stored.Status)
	}
	if stored.ModerationNotes == "" {
		t.Error("expected moderation notes to be recorded")
	}
	if len(idx.indexed) != 0 {
		t.Error("rejected listing must not reach the search index")
	}
}

func TestPublishSuccessIndexesListing(t *testing.T) {
	repo := newFakeOpportunityRepo()
	idx := &fakeIndexer{}
	svc := newOpportunityService(repo, idx)

	opp, err := svc.Create(1, publishableRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	published, err := svc.Publish(opp.ID, 1, false)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if !published.IsPublished() {
		t.Errorf("status = %q, want published", published.Status)
	}
	if published.PublishedAt == nil {
		t.Error("expected published_at to be set")
	}
	if len(idx.indexed) != 1 || idx.indexed[0] != opp.ID {
		t.Errorf("indexed = %v", idx.indexed)
	}
}

func TestUnpublishRemovesFromIndex(t *testing.T) {
	repo := newFakeOpportunityRepo()
	idx := &fakeIndexer{}
	svc := newOpportunityService(repo, idx)

	opp, _ := svc.Create(1, publishableRequest())
	if _, err := svc.Publish(opp.ID, 1, false); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	back, err := svc.Unpublish(opp.ID, 1, false)
	if err != nil {
		t.Fatalf("Unpublish: %v", err)
	}

	if back.Status != models.OpportunityStatusDraft {
		t.Errorf("status = %q, want draft", back.Status)
	}
	if back.PublishedAt != nil {
		t.Error("expected published_at cleared")
	}
	if len(idx.removed) != 1 {
		t.Errorf("removed = %v", idx.removed)
	}
}

func TestUpdateRejectsNonOwner(t *testing.T) {
	svc := newOpportunityService(newFakeOpportunityRepo(), nil)

	opp, _ := svc.Create(1, publishableRequest())

	title := "Hijacked"
	_, err := svc.Update(opp.ID, 99, false, models.UpdateOpportunityRequest{Title: &title})

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.PermissionNotOwner {
		t.Fatalf("expected ownership error, got %v", err)
	}
}

func TestUpdateAllowsAdmin(t *testing.T) {
	svc := newOpportunityService(newFakeOpportunityRepo(), nil)

	opp, _ := svc.Create(1, publishableRequest())

	location := "Jakarta"
	updated, err := svc.Update(opp.ID, 99, true, models.UpdateOpportunityRequest{Location: &location})
	if err != nil {
		t.Fatalf("Update as admin: %v", err)
	}
	if updated.Location != "Jakarta" {
		t.Errorf("location = %q", updated.Location)
	}
}

func TestAdditionalInfoGetsStableIDs(t *testing.T) {
	svc := newOpportunityService(newFakeOpportunityRepo(), nil)

	req := publishableRequest()
	req.AdditionalInfo = []models.InfoField{
		{Key: "Eligibility", Value: "Grades 10-12"},
		{ID: "keep-me", Key: "Cost", Value: "Free"},
	}

	opp, err := svc.Create(1, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if opp.AdditionalInfo[0].ID == "" {
		t.Error("expected generated id for first entry")
	}
	if opp.AdditionalInfo[1].ID != "keep-me" {
		t.Errorf("existing id replaced: %q", opp.AdditionalInfo[1].ID)
	}
}

type fakeViewBuffer struct {
	counts map[uint]int64
}

func (b *fakeViewBuffer) PendingViewIDs() ([]uint, error) {
	var ids []uint
	for id := range b.counts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (b *fakeViewBuffer) ConsumeViews(opportunityID uint) (int64, error) {
	count := b.counts[opportunityID]
	delete(b.counts, opportunityID)
	return count, nil
}

func (b *fakeViewBuffer) RestoreViews(opportunityID uint, count int64) error {
	b.counts[opportunityID] += count
	return nil
}

type failingViewStore struct {
	*fakeOpportunityRepo
}

func (r *failingViewStore) AddViews(id uint, count int64) error {
	return errors.New("database unavailable")
}

func TestFlushBufferedViewsDrainsCounters(t *testing.T) {
	repo := newFakeOpportunityRepo()
	svc := newOpportunityService(repo, nil)

	opp, err := svc.Create(1, publishableRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	buffer := &fakeViewBuffer{counts: map[uint]int64{opp.ID: 7}}
	flushBufferedViews(buffer, repo)

	stored, _ := repo.GetByID(opp.ID)
	if stored.Views != 7 {
		t.Errorf("views = %d, want 7", stored.Views)
	}
	if len(buffer.counts) != 0 {
		t.Errorf("buffer not drained: %v", buffer.counts)
	}
}

func TestFlushBufferedViewsRestoresOnStoreFailure(t *testing.T) {
	repo := newFakeOpportunityRepo()
	svc := newOpportunityService(repo, nil)

	opp, err := svc.Create(1, publishableRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	buffer := &fakeViewBuffer{counts: map[uint]int64{opp.ID: 5}}
	flushBufferedViews(buffer, &failingViewStore{repo})

	if buffer.counts[opp.ID] != 5 {
		t.Errorf("buffered count = %d, want 5 restored after failed write", buffer.counts[opp.ID])
	}
	stored, _ := repo.GetByID(opp.ID)
	if stored.Views != 0 {
		t.Errorf("views = %d, want 0", stored.Views)
	}
}
