package models

import "time"

type SignupRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=12,max=128"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=12,max=128"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateOpportunityRequest struct {
	Title          string      `json:"title" binding:"required,no_html"`
	Description    string      `json:"description" binding:"required"`
	Type           string      `json:"type" binding:"required,opportunity_type"`
	Organizer      string      `json:"organizer"`
	Location       string      `json:"location"`
	URL            string      `json:"url"`
	Deadline       *time.Time  `json:"deadline"`
	Tags           []string    `json:"tags"`
	AdditionalInfo []InfoField `json:"additional_info"`
}

type UpdateOpportunityRequest struct {
	Title          *string      `json:"title" binding:"omitempty,no_html"`
	Description    *string      `json:"description"`
	Type           *string      `json:"type" binding:"omitempty,opportunity_type"`
	Organizer      *string      `json:"organizer"`
	Location       *string      `json:"location"`
	URL            *string      `json:"url"`
	Deadline       *time.Time   `json:"deadline"`
	Tags           []string     `json:"tags"`
	AdditionalInfo *[]InfoField `json:"additional_info"`
}

type CreateBookmarkRequest struct {
	OpportunityID uint `json:"opportunity_id" binding:"required"`
}

type SaveFormRequest struct {
	Form ApplicationForm `json:"form" binding:"required"`
}

type ValidatePageRequest struct {
	PageID  string                 `json:"page_id" binding:"required"`
	Answers map[string]interface{} `json:"answers"`
}

type SubmitApplicationRequest struct {
	Email   string                 `json:"email"`
	Answers map[string]interface{} `json:"answers"`
}

type UpdateApplicationStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	ReviewNote string `json:"review_note"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	Website     *string `json:"website"`
}

type UpdateNotificationSettingsRequest struct {
	Settings map[string]interface{} `json:"settings" binding:"required"`
}

type UpdatePrivacySettingsRequest struct {
	Settings map[string]interface{} `json:"settings" binding:"required"`
}

type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1"`
}

type DiscoveryContinueRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Answer    string `json:"answer" binding:"required"`
}

type DiscoveryOpportunitiesRequest struct {
	SessionID string   `json:"session_id" binding:"required"`
	Interests []string `json:"interests"`
}

type DiscoveryAnalyzeRequest struct {
	SessionID     string `json:"session_id"`
	OpportunityID uint   `json:"opportunity_id" binding:"required"`
}
