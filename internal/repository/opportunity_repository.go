package repository

import (
	"gorm.io/gorm"

	"depanku-backend/internal/models"
)

// OpportunityFilter narrows listing queries. Nil fields are unconstrained.
type OpportunityFilter struct {
	Type    *string
	Tag     *string
	OwnerID *uint
	Status  *string
}

type OpportunityRepository interface {
	Create(opportunity *models.Opportunity) error
	GetByID(id uint) (*models.Opportunity, error)
	GetBySlug(slug string) (*models.Opportunity, error)
	GetAll(offset, limit int, filter OpportunityFilter) ([]models.Opportunity, int64, error)
	GetAllPublished() ([]models.Opportunity, error)
	Update(opportunity *models.Opportunity) error
	Delete(id uint) error
	ExistsBySlug(slug string) (bool, error)
	IncrementViews(id uint) error
	AddViews(id uint, count int64) error
	CountByStatus() (map[string]int64, error)
	CountByType() (map[string]int64, error)
	GetTopViewed(limit int) ([]models.Opportunity, error)
}

type opportunityRepository struct {
	db *gorm.DB
}

func NewOpportunityRepository(db *gorm.DB) OpportunityRepository {
	return &opportunityRepository{db: db}
}

func (r *opportunityRepository) Create(opportunity *models.Opportunity) error {
	return r.db.Create(opportunity).Error
}

func (r *opportunityRepository) GetByID(id uint) (*models.Opportunity, error) {
	var opportunity models.Opportunity
	err := r.db.Preload("Owner").First(&opportunity, id).Error
	if err != nil {
		return nil, err
	}
	return &opportunity, nil
}

func (r *opportunityRepository) GetBySlug(slug string) (*models.Opportunity, error) {
	var opportunity models.Opportunity
	err := r.db.Where("slug = ?", slug).Preload("Owner").First(&opportunity).Error
	if err != nil {
		return nil, err
	}
	return &opportunity, nil
}

func (r *opportunityRepository) GetAll(offset, limit int, filter OpportunityFilter) ([]models.Opportunity, int64, error) {
	var opportunities []models.Opportunity
	var total int64

	query := r.db.Model(&models.Opportunity{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Tag != nil {
		query = query.Where("tags @> ?", `["`+*filter.Tag+`"]`)
	}

	query.Count(&total)

	err := query.Preload("Owner").
		Order("COALESCE(opportunities.published_at, opportunities.created_at) DESC").
		Offset(offset).Limit(limit).
		Find(&opportunities).Error

	return opportunities, total, err
}

func (r *opportunityRepository) GetAllPublished() ([]models.Opportunity, error) {
	var opportunities []models.Opportunity
	err := r.db.Where("status = ?", models.OpportunityStatusPublished).
		Order("COALESCE(opportunities.published_at, opportunities.created_at) DESC").
		Find(&opportunities).Error
	return opportunities, err
}

func (r *opportunityRepository) Update(opportunity *models.Opportunity) error {
	return r.db.Omit("Owner").Save(opportunity).Error
}

func (r *opportunityRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("opportunity_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("opportunity_id = ?", id).Delete(&models.Application{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.Opportunity{}, id).Error
	})
}

func (r *opportunityRepository) ExistsBySlug(slug string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Opportunity{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *opportunityRepository) IncrementViews(id uint) error {
	return r.AddViews(id, 1)
}

func (r *opportunityRepository) AddViews(id uint, count int64) error {
	return r.db.Model(&models.Opportunity{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", count)).Error
}

type statusCount struct {
	Status string
	Count  int64
}

func (r *opportunityRepository) CountByStatus() (map[string]int64, error) {
	var rows []statusCount
	err := r.db.Model(&models.Opportunity{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Count
	}
	return result, nil
}

type typeCount struct {
	Type  string
	Count int64
}

func (r *opportunityRepository) CountByType() (map[string]int64, error) {
	var rows []typeCount
	err := r.db.Model(&models.Opportunity{}).
		Where("status = ?", models.OpportunityStatusPublished).
		Select("type, COUNT(*) AS count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Type] = row.Count
	}
	return result, nil
}

func (r *opportunityRepository) GetTopViewed(limit int) ([]models.Opportunity, error) {
	var opportunities []models.Opportunity
	err := r.db.Where("status = ?", models.OpportunityStatusPublished).
		Order("views DESC").
		Limit(limit).
		Find(&opportunities).Error
	return opportunities, err
}
