package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"depanku-backend/internal/authorization"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username string                 `gorm:"uniqueIndex;not null" json:"username"`
	Email    string                 `gorm:"uniqueIndex;not null" json:"email"`
	Password string                 `gorm:"not null" json:"-"`
	Role     authorization.UserRole `gorm:"type:varchar(32);default:'user'" json:"role"`

	Status        string `gorm:"default:'active'" json:"status"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`

	VerificationCode   string     `gorm:"size:16" json:"-"`
	VerificationSentAt *time.Time `json:"-"`

	// Profile
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
	Bio         string `gorm:"type:text" json:"bio"`
	Location    string `json:"location"`
	Website     string `json:"website"`

	Notifications JSONMap `gorm:"type:jsonb" json:"notifications,omitempty"`
	Privacy       JSONMap `gorm:"type:jsonb" json:"privacy,omitempty"`

	Opportunities []Opportunity `gorm:"foreignKey:OwnerID" json:"opportunities,omitempty"`
	Bookmarks     []Bookmark    `gorm:"foreignKey:UserID" json:"bookmarks,omitempty"`
}

const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

const (
	OpportunityTypeResearch     = "research"
	OpportunityTypeCompetition  = "competition"
	OpportunityTypeYouthProgram = "youth_program"
	OpportunityTypeCommunity    = "community"
)

const (
	OpportunityStatusDraft     = "draft"
	OpportunityStatusPublished = "published"
)

type Opportunity struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string     `gorm:"not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Type        string     `gorm:"type:varchar(32);not null;index" json:"type"`
	Organizer   string     `json:"organizer"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	Deadline    *time.Time `gorm:"index" json:"deadline,omitempty"`

	Tags           StringList `gorm:"type:jsonb" json:"tags"`
	AdditionalInfo InfoFields `gorm:"type:jsonb" json:"additional_info"`

	Status          string     `gorm:"type:varchar(16);default:'draft';index" json:"status"`
	PublishedAt     *time.Time `gorm:"index" json:"published_at,omitempty"`
	ModerationNotes string     `gorm:"type:text" json:"moderation_notes,omitempty"`

	Form ApplicationForm `gorm:"type:jsonb" json:"application_form"`

	Views int `gorm:"default:0" json:"views"`

	OwnerID uint `gorm:"not null;index" json:"owner_id"`
	Owner   User `gorm:"foreignKey:OwnerID" json:"owner"`
}

func (o *Opportunity) IsPublished() bool {
	return o != nil && o.Status == OpportunityStatusPublished
}

type Bookmark struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID        uint `gorm:"not null;uniqueIndex:idx_bookmarks_user_opportunity" json:"user_id"`
	OpportunityID uint `gorm:"not null;uniqueIndex:idx_bookmarks_user_opportunity" json:"opportunity_id"`

	Opportunity Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity"`
}

const (
	ApplicationStatusPending   = "pending"
	ApplicationStatusReviewing = "reviewing"
	ApplicationStatusAccepted  = "accepted"
	ApplicationStatusRejected  = "rejected"
)

func ValidApplicationStatus(status string) bool {
	switch status {
	case ApplicationStatusPending, ApplicationStatusReviewing,
		ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

type Application struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OpportunityID uint `gorm:"not null;index" json:"opportunity_id"`
	ApplicantID   uint `gorm:"not null;index" json:"applicant_id"`

	Email   string     `json:"email,omitempty"`
	Answers AnswerList `gorm:"type:jsonb" json:"answers"`

	Status     string `gorm:"type:varchar(16);default:'pending';index" json:"status"`
	ReviewNote string `gorm:"type:text" json:"review_note,omitempty"`

	Opportunity Opportunity `gorm:"foreignKey:OpportunityID" json:"opportunity,omitempty"`
	Applicant   User        `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
}

// Answer is one flattened response entry: the question metadata travels with
// the value so review screens can render submissions without the form version
// that produced them.
type Answer struct {
	QuestionID    string      `json:"question_id"`
	QuestionTitle string      `json:"question_title"`
	QuestionType  string      `json:"question_type"`
	Answer        interface{} `json:"answer"`
	Required      bool        `json:"required"`
}

type AnswerList []Answer

func (a *AnswerList) Scan(value interface{}) error {
	if value == nil {
		*a = AnswerList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan AnswerList")
	}
	return json.Unmarshal(bytes, a)
}

func (a AnswerList) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	return json.Marshal(a)
}

type Setting struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InfoField is one entry of an opportunity's additional information. Entries
// are an ordered list addressed by a stable synthetic id, never by position.
type InfoField struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type InfoFields []InfoField

// AssignInfoFieldIDs fills in ids for entries that arrived without one.
// Existing ids are kept so edits stay addressed to the same entry.
func AssignInfoFieldIDs(fields []InfoField) InfoFields {
	result := make(InfoFields, 0, len(fields))
	for _, field := range fields {
		if field.ID == "" {
			field.ID = uuid.NewString()
		}
		result = append(result, field)
	}
	return result
}

func (f *InfoFields) Scan(value interface{}) error {
	if value == nil {
		*f = InfoFields{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan InfoFields")
	}
	return json.Unmarshal(bytes, f)
}

func (f InfoFields) Value() (driver.Value, error) {
	if len(f) == 0 {
		return nil, nil
	}
	return json.Marshal(f)
}

type StringList []string

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan StringList")
	}
	return json.Unmarshal(bytes, s)
}

func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return json.Marshal(s)
}

type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan JSONMap")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(bytes, &decoded); err != nil {
		return err
	}

	*m = decoded
	return nil
}
