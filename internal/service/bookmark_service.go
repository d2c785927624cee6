package service

import (
	"errors"

	"gorm.io/gorm"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
)

type BookmarkService struct {
	bookmarkRepo    repository.BookmarkRepository
	opportunityRepo repository.OpportunityRepository
}

func NewBookmarkService(bookmarkRepo repository.BookmarkRepository, opportunityRepo repository.OpportunityRepository) *BookmarkService {
	return &BookmarkService{
		bookmarkRepo:    bookmarkRepo,
		opportunityRepo: opportunityRepo,
	}
}

// Add is idempotent: bookmarking an already bookmarked opportunity returns
// the existing record.
func (s *BookmarkService) Add(userID, opportunityID uint) (*models.Bookmark, error) {
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

	existing, err := s.bookmarkRepo.GetByUserAndOpportunity(userID, opportunityID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	bookmark := &models.Bookmark{
		UserID:        userID,
		OpportunityID: opportunityID,
	}
	if err := s.bookmarkRepo.Create(bookmark); err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return bookmark, nil
}

func (s *BookmarkService) Remove(userID, opportunityID uint) error {
	bookmark, err := s.bookmarkRepo.GetByUserAndOpportunity(userID, opportunityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.New(apperrors.NotFoundBookmark)
		}
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}

	if err := s.bookmarkRepo.Delete(bookmark.ID); err != nil {
		return apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return nil
}

func (s *BookmarkService) ListForUser(userID uint) ([]models.Bookmark, error) {
	bookmarks, err := s.bookmarkRepo.GetAllForUser(userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ServerDatabase, err)
	}
	return bookmarks, nil
}

// IsBookmarked reports whether the user has saved the opportunity.
func (s *BookmarkService) IsBookmarked(userID, opportunityID uint) (bool, error) {
	_, err := s.bookmarkRepo.GetByUserAndOpportunity(userID, opportunityID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, apperrors.Wrap(apperrors.ServerDatabase, err)
}
