package service

import (
	"strings"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/pkg/validator"
)

const defaultSearchLimit = 20

// SearchService answers directory queries from Postgres full-text search.
// The external index handles the instant-search UI; this path backs the
// plain query endpoint and keeps working when Algolia is disabled.
type SearchService struct {
	searchRepo repository.SearchRepository
}

func NewSearchService(searchRepo repository.SearchRepository) *SearchService {
	return &SearchService{searchRepo: searchRepo}
}

func (s *SearchService) Search(query string, limit int) ([]models.Opportunity, error) {
	query = validator.NormalizeSpaces(strings.TrimSpace(query))
	if query == "" {
		return []models.Opportunity{}, nil
	}
	if limit < 1 || limit > 100 {
		limit = defaultSearchLimit
	}

	results, err := s.searchRepo.SearchOpportunities(query, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	// Full-text misses short fragments; fall back to substring match.
	if len(results) == 0 {
		results, err = s.searchRepo.SearchByTitle(query, limit)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
		}
	}
	return results, nil
}

func (s *SearchService) SearchByTag(tag string, limit int) ([]models.Opportunity, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return []models.Opportunity{}, nil
	}
	if limit < 1 || limit > 100 {
		limit = defaultSearchLimit
	}

	results, err := s.searchRepo.SearchByTag(tag, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return results, nil
}

func (s *SearchService) SearchByOrganizer(organizer string, limit int) ([]models.Opportunity, error) {
	organizer = strings.TrimSpace(organizer)
	if organizer == "" {
		return []models.Opportunity{}, nil
	}
	if limit < 1 || limit > 100 {
		limit = defaultSearchLimit
	}

	results, err := s.searchRepo.SearchByOrganizer(organizer, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return results, nil
}
