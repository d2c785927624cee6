package repository

import (
	"gorm.io/gorm"

	"depanku-backend/internal/models"
)

type ApplicationRepository interface {
	Create(application *models.Application) error
	GetByID(id uint) (*models.Application, error)
	GetForOpportunity(opportunityID uint, status *string) ([]models.Application, error)
	GetForApplicant(applicantID uint) ([]models.Application, error)
	ExistsForApplicant(opportunityID, applicantID uint) (bool, error)
	Update(application *models.Application) error
	CountByStatus() (map[string]int64, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(application *models.Application) error {
	return r.db.Create(application).Error
}

func (r *applicationRepository) GetByID(id uint) (*models.Application, error) {
	var application models.Application
	err := r.db.Preload("Opportunity").Preload("Applicant").First(&application, id).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (r *applicationRepository) GetForOpportunity(opportunityID uint, status *string) ([]models.Application, error) {
	var applications []models.Application

	query := r.db.Where("opportunity_id = ?", opportunityID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	err := query.Preload("Applicant").
		Order("created_at DESC").
		Find(&applications).Error
	return applications, err
}

func (r *applicationRepository) GetForApplicant(applicantID uint) ([]models.Application, error) {
	var applications []models.Application
	err := r.db.Where("applicant_id = ?", applicantID).
		Preload("Opportunity").
		Order("created_at DESC").
		Find(&applications).Error
	return applications, err
}

func (r *applicationRepository) ExistsForApplicant(opportunityID, applicantID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Application{}).
		Where("opportunity_id = ? AND applicant_id = ?", opportunityID, applicantID).
		Count(&count).Error
	return count > 0, err
}

func (r *applicationRepository) Update(application *models.Application) error {
	return r.db.Omit("Opportunity", "Applicant").Save(application).Error
}

func (r *applicationRepository) CountByStatus() (map[string]int64, error) {
	var rows []statusCount
	err := r.db.Model(&models.Application{}).
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
