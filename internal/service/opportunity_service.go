package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/internal/seed"
	"depanku-backend/pkg/cache"
	"depanku-backend/pkg/logger"
	"depanku-backend/pkg/validator"
)

// SearchIndexer mirrors published listings into the external search index.
// Implementations must tolerate being called for listings that are not in
// the index yet.
type SearchIndexer interface {
	IndexOpportunity(opp *models.Opportunity) error
	RemoveOpportunity(id uint) error
}

type OpportunityService struct {
	repo       repository.OpportunityRepository
	moderation *ModerationService
	indexer    SearchIndexer
	cache      *cache.Cache
}

func NewOpportunityService(
	repo repository.OpportunityRepository,
	moderation *ModerationService,
	indexer SearchIndexer,
	c *cache.Cache,
) *OpportunityService {
	return &OpportunityService{
		repo:       repo,
		moderation: moderation,
		indexer:    indexer,
		cache:      c,
	}
}

// OpportunityPage is one page of listing results.
type OpportunityPage struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int64                `json:"total"`
	Page          int                  `json:"page"`
	PerPage       int                  `json:"per_page"`
}

func (s *OpportunityService) Create(ownerID uint, req models.CreateOpportunityRequest) (*models.Opportunity, error) {
	if !validOpportunityType(req.Type) {
		return nil, apperrors.New(apperrors.ValidationInvalidFormat)
	}

	slug, err := s.generateSlug(req.Title)
	if err != nil {
		return nil, err
	}

	opp := &models.Opportunity{
		Title:          strings.TrimSpace(req.Title),
		Slug:           slug,
		Description:    validator.SanitizeHTML(req.Description),
		Type:           req.Type,
		Organizer:      strings.TrimSpace(req.Organizer),
		Location:       strings.TrimSpace(req.Location),
		URL:            strings.TrimSpace(req.URL),
		Deadline:       req.Deadline,
		Tags:           normalizeTags(req.Tags),
		AdditionalInfo: models.AssignInfoFieldIDs(req.AdditionalInfo),
		Status:         models.OpportunityStatusDraft,
		OwnerID:        ownerID,
	}

	if err := s.repo.Create(opp); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	s.invalidateListings(opp.ID)
	return opp, nil
}

func (s *OpportunityService) GetByID(id uint) (*models.Opportunity, error) {
	if s.cache.Enabled() {
		var cached models.Opportunity
		if err := s.cache.GetCachedOpportunity(id, &cached); err == nil {
			return &cached, nil
		}
	}

	opp, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.NotFoundOpportunity)
		}
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	if s.cache.Enabled() {
		if err := s.cache.CacheOpportunity(id, opp); err != nil {
			logger.Warn("Failed to cache opportunity", map[string]interface{}{
				"opportunity_id": id, "error": err.Error(),
			})
		}
	}
	return opp, nil
}

func (s *OpportunityService) GetBySlug(slug string) (*models.Opportunity, error) {
	opp, err := s.repo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.NotFoundOpportunity)
		}
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return opp, nil
}

// RecordView bumps the listing's view counter. The counter goes through
// Redis when available so page views do not contend on the row.
func (s *OpportunityService) RecordView(id uint) {
	if s.cache.Enabled() {
		if _, err := s.cache.IncrementViews(id); err == nil {
			return
		}
	}
	if err := s.repo.IncrementViews(id); err != nil {
		logger.Warn("Failed to record view", map[string]interface{}{
			"opportunity_id": id, "error": err.Error(),
		})
	}
}

// viewBuffer is the slice of the cache the flusher needs.
type viewBuffer interface {
	PendingViewIDs() ([]uint, error)
	ConsumeViews(opportunityID uint) (int64, error)
	RestoreViews(opportunityID uint, count int64) error
}

// FlushViews folds buffered Redis view counters back into the database.
// Called periodically from the application lifecycle and once on shutdown.
func (s *OpportunityService) FlushViews() {
	if !s.cache.Enabled() {
		return
	}
	flushBufferedViews(s.cache, s.repo)
}

func flushBufferedViews(buffer viewBuffer, store repository.OpportunityRepository) {
	ids, err := buffer.PendingViewIDs()
	if err != nil {
		logger.Warn("Failed to scan pending views", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, id := range ids {
		// Consume atomically so increments racing the flush are never lost;
		// a failed database write puts the count back for the next pass.
		count, err := buffer.ConsumeViews(id)
		if err != nil || count == 0 {
			continue
		}
		if err := store.AddViews(id, count); err != nil {
			_ = buffer.RestoreViews(id, count)
		}
	}
}

func (s *OpportunityService) List(page, perPage int, oppType, tag string) (*OpportunityPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	cacheKey := fmt.Sprintf("opportunities:p%d:n%d:t%s:g%s", page, perPage, oppType, tag)
	if s.cache.Enabled() {
		var cached OpportunityPage
		if err := s.cache.GetCachedOpportunityList(cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	status := models.OpportunityStatusPublished
	filter := repository.OpportunityFilter{Status: &status}
	if oppType != "" {
		filter.Type = &oppType
	}
	if tag != "" {
		filter.Tag = &tag
	}

	opportunities, total, err := s.repo.GetAll((page-1)*perPage, perPage, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	result := &OpportunityPage{
		Opportunities: opportunities,
		Total:         total,
		Page:          page,
		PerPage:       perPage,
	}

	if s.cache.Enabled() {
		_ = s.cache.CacheOpportunityList(cacheKey, result)
	}
	return result, nil
}

func (s *OpportunityService) ListMine(ownerID uint, page, perPage int) (*OpportunityPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	filter := repository.OpportunityFilter{OwnerID: &ownerID}
	opportunities, total, err := s.repo.GetAll((page-1)*perPage, perPage, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	return &OpportunityPage{
		Opportunities: opportunities,
		Total:         total,
		Page:          page,
		PerPage:       perPage,
	}, nil
}

func (s *OpportunityService) Update(id, requesterID uint, manageAll bool, req models.UpdateOpportunityRequest) (*models.Opportunity, error) {
	opp, err := s.ownedOpportunity(id, requesterID, manageAll)
	if err != nil {
		return nil, err
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != opp.Title {
		opp.Title = strings.TrimSpace(*req.Title)
		slug, err := s.generateSlug(opp.Title)
		if err != nil {
			return nil, err
		}
		opp.Slug = slug
	}
	if req.Description != nil {
		opp.Description = validator.SanitizeHTML(*req.Description)
	}
	if req.Type != nil {
		if !validOpportunityType(*req.Type) {
			return nil, apperrors.New(apperrors.ValidationInvalidFormat)
		}
		opp.Type = *req.Type
	}
	if req.Organizer != nil {
		opp.Organizer = strings.TrimSpace(*req.Organizer)
	}
	if req.Location != nil {
		opp.Location = strings.TrimSpace(*req.Location)
	}
	if req.URL != nil {
		opp.URL = strings.TrimSpace(*req.URL)
	}
	if req.Deadline != nil {
		opp.Deadline = req.Deadline
	}
	if req.Tags != nil {
		opp.Tags = normalizeTags(req.Tags)
	}
	if req.AdditionalInfo != nil {
		opp.AdditionalInfo = models.AssignInfoFieldIDs(*req.AdditionalInfo)
	}

	if err := s.repo.Update(opp); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	s.invalidateListings(opp.ID)
	s.syncIndex(opp)
	return opp, nil
}

func (s *OpportunityService) Delete(id, requesterID uint, manageAll bool) error {
	if _, err := s.ownedOpportunity(id, requesterID, manageAll); err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	s.invalidateListings(id)
	if s.indexer != nil {
		if err := s.indexer.RemoveOpportunity(id); err != nil {
			logger.Error(err, "Failed to remove opportunity from search index", map[string]interface{}{
				"opportunity_id": id,
			})
		}
	}
	return nil
}

// Publish moves a draft listing to published state. The listing must pass
// automated moderation first; failures are returned with the full issue
// list and the listing stays in draft.
func (s *OpportunityService) Publish(id, requesterID uint, manageAll bool) (*models.Opportunity, error) {
	opp, err := s.ownedOpportunity(id, requesterID, manageAll)
	if err != nil {
		return nil, err
	}

	issues, notes := s.moderation.Review(opp)
	if len(issues) > 0 {
		opp.ModerationNotes = notes
		if err := s.repo.Update(opp); err != nil {
			return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
		}

		rejection := apperrors.New(apperrors.PermissionModerationRejected)
		rejection.Issues = issues
		rejection.ModerationNotes = notes
		return nil, rejection
	}

	now := time.Now().UTC()
	opp.Status = models.OpportunityStatusPublished
	opp.PublishedAt = &now
	opp.ModerationNotes = ""

	if err := s.repo.Update(opp); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	s.invalidateListings(opp.ID)
	s.syncIndex(opp)
	return opp, nil
}

func (s *OpportunityService) Unpublish(id, requesterID uint, manageAll bool) (*models.Opportunity, error) {
	opp, err := s.ownedOpportunity(id, requesterID, manageAll)
	if err != nil {
		return nil, err
	}

	opp.Status = models.OpportunityStatusDraft
	opp.PublishedAt = nil

	if err := s.repo.Update(opp); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	s.invalidateListings(opp.ID)
	if s.indexer != nil {
		if err := s.indexer.RemoveOpportunity(opp.ID); err != nil {
			logger.Error(err, "Failed to remove opportunity from search index", map[string]interface{}{
				"opportunity_id": opp.ID,
			})
		}
	}
	return opp, nil
}

func (s *OpportunityService) Templates() []seed.OpportunityTemplate {
	return seed.OpportunityTemplates()
}

func (s *OpportunityService) TagPresets() []seed.TagPreset {
	if s.cache.Enabled() {
		var cached []seed.TagPreset
		if err := s.cache.GetCachedTagPresets(&cached); err == nil && len(cached) > 0 {
			return cached
		}
	}

	presets := seed.TagPresets()
	if s.cache.Enabled() {
		_ = s.cache.CacheTagPresets(presets)
	}
	return presets
}

func (s *OpportunityService) ownedOpportunity(id, requesterID uint, manageAll bool) (*models.Opportunity, error) {
	opp, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.NotFoundOpportunity)
		}
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	if !manageAll && opp.OwnerID != requesterID {
		return nil, apperrors.New(apperrors.PermissionNotOwner)
	}
	return opp, nil
}

func (s *OpportunityService) invalidateListings(id uint) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.InvalidateOpportunity(id); err != nil {
		logger.Warn("Failed to invalidate opportunity cache", map[string]interface{}{
			"opportunity_id": id, "error": err.Error(),
		})
	}
}

// syncIndex pushes published listings into the search index. Draft
// listings are never indexed.
func (s *OpportunityService) syncIndex(opp *models.Opportunity) {
	if s.indexer == nil || !opp.IsPublished() {
		return
	}
	if err := s.indexer.IndexOpportunity(opp); err != nil {
		logger.Error(err, "Failed to sync opportunity to search index", map[string]interface{}{
			"opportunity_id": opp.ID,
		})
	}
}

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\-]`)
	slugDashRuns     = regexp.MustCompile(`-+`)
)

func (s *OpportunityService) generateSlug(title string) (string, error) {
	base := strings.ToLower(strings.TrimSpace(title))
	base = strings.ReplaceAll(base, " ", "-")
	base = slugInvalidChars.ReplaceAllString(base, "")
	base = slugDashRuns.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "opportunity"
	}

	slug := base
	for i := 2; ; i++ {
		exists, err := s.repo.ExistsBySlug(slug)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ServerDatabase, err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func validOpportunityType(t string) bool {
	switch t {
	case models.OpportunityTypeResearch, models.OpportunityTypeCompetition,
		models.OpportunityTypeYouthProgram, models.OpportunityTypeCommunity:
		return true
	}
	return false
}

func normalizeTags(tags []string) models.StringList {
	seen := make(map[string]struct{}, len(tags))
	result := make(models.StringList, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		tag = strings.ReplaceAll(tag, " ", "-")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
