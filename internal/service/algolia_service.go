package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/config"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/pkg/logger"
)

const algoliaTimeout = 15 * time.Second

// AlgoliaService mirrors published opportunities into an Algolia index via
// the REST API. Every method is a no-op when Algolia is not configured, so
// the rest of the system never has to branch on it.
type AlgoliaService struct {
	cfg             *config.Config
	opportunityRepo repository.OpportunityRepository
	settingRepo     repository.SettingRepository
	httpClient      *http.Client
}

func NewAlgoliaService(cfg *config.Config, opportunityRepo repository.OpportunityRepository, settingRepo repository.SettingRepository) *AlgoliaService {
	return &AlgoliaService{
		cfg:             cfg,
		opportunityRepo: opportunityRepo,
		settingRepo:     settingRepo,
		httpClient:      &http.Client{Timeout: algoliaTimeout},
	}
}

func (s *AlgoliaService) Enabled() bool {
	return s.cfg.EnableAlgolia && s.cfg.AlgoliaAppID != "" && s.cfg.AlgoliaAPIKey != ""
}

// searchRecord is the indexed shape. Only fields the search UI needs are
// mirrored; the database row stays authoritative.
type searchRecord struct {
	ObjectID    string     `json:"objectID"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Organizer   string     `json:"organizer"`
	Location    string     `json:"location"`
	Tags        []string   `json:"tags"`
	Deadline    *time.Time `json:"deadline,omitempty"`
}

// searchRecordDescriptionLimit caps the indexed description in bytes.
// Algolia record size is billed and limited, so only a preview is mirrored.
const searchRecordDescriptionLimit = 500

// truncateUTF8 cuts s to at most limit bytes without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func toSearchRecord(opp *models.Opportunity) searchRecord {
	description := truncateUTF8(opp.Description, searchRecordDescriptionLimit)
	return searchRecord{
		ObjectID:    fmt.Sprintf("%d", opp.ID),
		Title:       opp.Title,
		Slug:        opp.Slug,
		Description: description,
		Type:        opp.Type,
		Organizer:   opp.Organizer,
		Location:    opp.Location,
		Tags:        opp.Tags,
		Deadline:    opp.Deadline,
	}
}

type batchOperation struct {
	Action string      `json:"action"`
	Body   interface{} `json:"body,omitempty"`
	// ObjectID is used for delete operations only.
	ObjectID string `json:"objectID,omitempty"`
}

type batchRequest struct {
	Requests []batchOperation `json:"requests"`
}

// IndexOpportunity upserts one listing into the index.
func (s *AlgoliaService) IndexOpportunity(opp *models.Opportunity) error {
	if !s.Enabled() {
		return nil
	}
	return s.batch([]batchOperation{
		{Action: "updateObject", Body: toSearchRecord(opp)},
	})
}

// RemoveOpportunity drops one listing from the index.
func (s *AlgoliaService) RemoveOpportunity(id uint) error {
	if !s.Enabled() {
		return nil
	}
	return s.batch([]batchOperation{
		{Action: "deleteObject", ObjectID: fmt.Sprintf("%d", id)},
	})
}

// SyncAll reindexes every published listing. Drafts are never pushed; a
// listing unpublished since the last sync is removed by its absence only
// after ClearThenSyncAll, so admins use that for a full rebuild.
func (s *AlgoliaService) SyncAll() (int, error) {
	if !s.Enabled() {
		return 0, nil
	}

	published, err := s.opportunityRepo.GetAllPublished()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	if len(published) == 0 {
		return 0, nil
	}

	operations := make([]batchOperation, 0, len(published))
	for i := range published {
		operations = append(operations, batchOperation{
			Action: "updateObject",
			Body:   toSearchRecord(&published[i]),
		})
	}

	if err := s.batch(operations); err != nil {
		return 0, err
	}

	s.recordSync()
	logger.Info("Synced opportunities to Algolia", map[string]interface{}{
		"count": len(operations),
		"index": s.cfg.AlgoliaIndex,
	})
	return len(operations), nil
}

const lastSyncSettingKey = "algolia_last_sync"

func (s *AlgoliaService) recordSync() {
	if s.settingRepo == nil {
		return
	}
	if err := s.settingRepo.Set(lastSyncSettingKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		logger.Error(err, "Failed to record Algolia sync time", nil)
	}
}

// LastSync returns the time of the last successful full sync, or nil when
// no sync has run yet.
func (s *AlgoliaService) LastSync() *time.Time {
	if s.settingRepo == nil {
		return nil
	}
	value, err := s.settingRepo.Get(lastSyncSettingKey)
	if err != nil || value == "" {
		return nil
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &at
}

// ClearThenSyncAll wipes the index and rebuilds it from the database.
func (s *AlgoliaService) ClearThenSyncAll() (int, error) {
	if !s.Enabled() {
		return 0, nil
	}
	if err := s.clear(); err != nil {
		return 0, err
	}
	return s.SyncAll()
}

func (s *AlgoliaService) batch(operations []batchOperation) error {
	url := fmt.Sprintf("https://%s.algolia.net/1/indexes/%s/batch",
		s.cfg.AlgoliaAppID, s.cfg.AlgoliaIndex)

	body, err := json.Marshal(batchRequest{Requests: operations})
	if err != nil {
		return apperrors.Wrap(apperrors.ServerInternal, err)
	}
	return s.do(http.MethodPost, url, body)
}

func (s *AlgoliaService) clear() error {
	url := fmt.Sprintf("https://%s.algolia.net/1/indexes/%s/clear",
		s.cfg.AlgoliaAppID, s.cfg.AlgoliaIndex)
	return s.do(http.MethodPost, url, nil)
}

func (s *AlgoliaService) do(method, url string, body []byte) error {
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(apperrors.ServerInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Algolia-API-Key", s.cfg.AlgoliaAPIKey)
	req.Header.Set("X-Algolia-Application-Id", s.cfg.AlgoliaAppID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.NetworkSearchSync, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 300 {
		return apperrors.Wrap(apperrors.NetworkSearchSync,
			fmt.Errorf("algolia status %d", resp.StatusCode))
	}
	return nil
}
