package repository

import (
	"gorm.io/gorm"

	"depanku-backend/internal/models"
)

type SearchRepository interface {
	SearchOpportunities(query string, limit int) ([]models.Opportunity, error)
	SearchByTitle(query string, limit int) ([]models.Opportunity, error)
	SearchByOrganizer(query string, limit int) ([]models.Opportunity, error)
	SearchByTag(tag string, limit int) ([]models.Opportunity, error)
}

type searchRepository struct {
	db *gorm.DB
}

func NewSearchRepository(db *gorm.DB) SearchRepository {
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_opportunities_search_tsvector
		ON opportunities USING GIN (to_tsvector('english', title || ' ' || description || ' ' || organizer))
	`)

	return &searchRepository{db: db}
}

func (r *searchRepository) SearchOpportunities(query string, limit int) ([]models.Opportunity, error) {
	var opportunities []models.Opportunity

	err := r.db.Where(
		"to_tsvector('english', title || ' ' || description || ' ' || organizer) @@ plainto_tsquery('english', ?)",
		query,
	).
		Where("status = ?", models.OpportunityStatusPublished).
		Preload("Owner").
		Order("COALESCE(opportunities.published_at, opportunities.created_at) DESC").
		Limit(limit).
		Find(&opportunities).Error

	return opportunities, err
}

func (r *searchRepository) SearchByTitle(query string, limit int) ([]models.Opportunity, error) {
	var opportunities []models.Opportunity

	err := r.db.Where("title ILIKE ?", "%"+query+"%").
		Where("status = ?", models.OpportunityStatusPublished).
		Preload("Owner").
		Order("COALESCE(opportunities.published_at, opportunities.created_at) DESC").
		Limit(limit).
		Find(&opportunities).Error

	return opportunities, err
}

func (r *searchRepository) SearchByOrganizer(query string, limit int) ([]models.Opportunity, error) {
	var opportunities []models.Opportunity

	err := r.db.Where("organizer ILIKE ?", "%"+query+"%").
		Where("status = ?", models.OpportunityStatusPublished).
		Preload("Owner").
		Order("COALESCE(opportunities.published_at, opportunities.created_at) DESC").
		Limit(limit).
		Find(&opportunities).Error

	return opportunities, err
}

func (r *searchRepository) SearchByTag(tag string, limit int) ([]models.Opportunity, error) {
	var opportunities []models.Opportunity

	err := r.db.Where("tags @> ?", `["`+tag+`"]`).
		Where("status = ?", models.OpportunityStatusPublished).
		Preload("Owner").
		Order("COALESCE(opportunities.published_at, opportunities.created_at) DESC").
		Limit(limit).
		Find(&opportunities).Error

	return opportunities, err
}
