package repository

import (
	"gorm.io/gorm"

	"depanku-backend/internal/models"
)

type BookmarkRepository interface {
	Create(bookmark *models.Bookmark) error
	GetByID(id uint) (*models.Bookmark, error)
	GetByUserAndOpportunity(userID, opportunityID uint) (*models.Bookmark, error)
	GetAllForUser(userID uint) ([]models.Bookmark, error)
	Delete(id uint) error
	Count() (int64, error)
}

type bookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

func (r *bookmarkRepository) Create(bookmark *models.Bookmark) error {
	return r.db.Create(bookmark).Error
}

func (r *bookmarkRepository) GetByID(id uint) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	err := r.db.Preload("Opportunity").First(&bookmark, id).Error
	if err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (r *bookmarkRepository) GetByUserAndOpportunity(userID, opportunityID uint) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	err := r.db.Where("user_id = ? AND opportunity_id = ?", userID, opportunityID).
		First(&bookmark).Error
	if err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (r *bookmarkRepository) GetAllForUser(userID uint) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := r.db.Where("user_id = ?", userID).
		Preload("Opportunity").
		Order("created_at DESC").
		Find(&bookmarks).Error
	return bookmarks, err
}

func (r *bookmarkRepository) Delete(id uint) error {
	return r.db.Unscoped().Delete(&models.Bookmark{}, id).Error
}

func (r *bookmarkRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Bookmark{}).Count(&count).Error
	return count, err
}
