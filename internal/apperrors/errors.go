// Package apperrors defines the error taxonomy shared by services and
// handlers. Every error carries its category and HTTP status from the throw
// site, so handlers never have to guess a classification from message text.
package apperrors

import (
	"fmt"
	"net/http"
)

type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryValidation Category = "validation"
	CategoryNetwork    Category = "network"
	CategoryServer     Category = "server"
	CategoryPermission Category = "permission"
	CategoryNotFound   Category = "not_found"
	CategoryRateLimit  Category = "rate_limit"
)

// FieldError reports a single failing form question, keyed by question id.
type FieldError struct {
	QuestionID string `json:"question_id"`
	Message    string `json:"message"`
}

type AppError struct {
	Code        string   `json:"code"`
	Message     string   `json:"-"`
	UserMessage string   `json:"message"`
	StatusCode  int      `json:"-"`
	Category    Category `json:"category"`

	// Moderation rejections carry structured findings for the client modal.
	Issues          []string `json:"issues,omitempty"`
	ModerationNotes string   `json:"moderation_notes,omitempty"`

	// Form validation failures carry per-question errors.
	Fields []FieldError `json:"fields,omitempty"`

	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by code, so errors.Is works against table entries.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Auth
const (
	AuthInvalidCredentials  = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired        = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid        = "AUTH_TOKEN_INVALID"
	AuthTokenMissing        = "AUTH_TOKEN_MISSING"
	AuthEmailExists         = "AUTH_EMAIL_EXISTS"
	AuthUsernameExists      = "AUTH_USERNAME_EXISTS"
	AuthEmailNotVerified    = "AUTH_EMAIL_NOT_VERIFIED"
	AuthWeakPassword        = "AUTH_WEAK_PASSWORD"
	AuthVerificationInvalid = "AUTH_VERIFICATION_INVALID"
	AuthWrongPassword       = "AUTH_WRONG_PASSWORD"
)

// Validation
const (
	ValidationRequiredField       = "VALIDATION_REQUIRED_FIELD"
	ValidationInvalidFormat       = "VALIDATION_INVALID_FORMAT"
	ValidationFormStructure       = "VALIDATION_FORM_STRUCTURE"
	ValidationLastPage            = "VALIDATION_LAST_PAGE"
	ValidationQuestionType        = "VALIDATION_QUESTION_TYPE"
	ValidationAnswerRequired      = "VALIDATION_ANSWER_REQUIRED"
	ValidationDuplicateSubmission = "VALIDATION_DUPLICATE_SUBMISSION"
	ValidationEmailRequired       = "VALIDATION_EMAIL_REQUIRED"
	ValidationInvalidStatus       = "VALIDATION_INVALID_STATUS"
)

// Network (upstream providers)
const (
	NetworkUpstreamTimeout     = "NETWORK_UPSTREAM_TIMEOUT"
	NetworkUpstreamUnavailable = "NETWORK_UPSTREAM_UNAVAILABLE"
	NetworkAIProvider          = "NETWORK_AI_PROVIDER"
	NetworkSearchSync          = "NETWORK_SEARCH_SYNC"
)

// Server
const (
	ServerInternal = "SERVER_INTERNAL"
	ServerDatabase = "SERVER_DATABASE"
	ServerCache    = "SERVER_CACHE"
	ServerEmail    = "SERVER_EMAIL"
	ServerUpload   = "SERVER_UPLOAD"
)

// Permission
const (
	PermissionDenied             = "PERMISSION_DENIED"
	PermissionNotOwner           = "PERMISSION_NOT_OWNER"
	PermissionAdminRequired      = "PERMISSION_ADMIN_REQUIRED"
	PermissionModerationRejected = "PERMISSION_MODERATION_REJECTED"
)

// Not found
const (
	NotFoundOpportunity = "NOT_FOUND_OPPORTUNITY"
	NotFoundUser        = "NOT_FOUND_USER"
	NotFoundBookmark    = "NOT_FOUND_BOOKMARK"
	NotFoundApplication = "NOT_FOUND_APPLICATION"
	NotFoundForm        = "NOT_FOUND_FORM"
	NotFoundSession     = "NOT_FOUND_SESSION"
	NotFoundRoute       = "NOT_FOUND_ROUTE"
)

// Rate limit
const (
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	RateLimitAI       = "RATE_LIMIT_AI"
)

var registry = map[string]AppError{
	AuthInvalidCredentials: {
		Message:     "email/password pair did not match a user",
		UserMessage: "Incorrect email or password.",
		StatusCode:  http.StatusUnauthorized,
		Category:    CategoryAuth,
	},
	AuthTokenExpired: {
		Message:     "JWT expired",
		UserMessage: "Your session has expired. Please sign in again.",
		StatusCode:  http.StatusUnauthorized,
		Category:    CategoryAuth,
	},
	AuthTokenInvalid: {
		Message:     "JWT failed signature or claims validation",
		UserMessage: "Your session is invalid. Please sign in again.",
		StatusCode:  http.StatusUnauthorized,
		Category:    CategoryAuth,
	},
	AuthTokenMissing: {
		Message:     "no bearer token or auth cookie on a protected route",
		UserMessage: "Please sign in to continue.",
		StatusCode:  http.StatusUnauthorized,
		Category:    CategoryAuth,
	},
	AuthEmailExists: {
		Message:     "signup email already registered",
		UserMessage: "An account with this email already exists.",
		StatusCode:  http.StatusConflict,
		Category:    CategoryAuth,
	},
	AuthUsernameExists: {
		Message:     "signup username already taken",
		UserMessage: "This username is already taken.",
		StatusCode:  http.StatusConflict,
		Category:    CategoryAuth,
	},
	AuthEmailNotVerified: {
		Message:     "operation requires a verified email",
		UserMessage: "Please verify your email address first.",
		StatusCode:  http.StatusForbidden,
		Category:    CategoryAuth,
	},
	AuthWeakPassword: {
		Message:     "password failed strength rules",
		UserMessage: "Password is too weak. Use at least 12 characters with mixed case, a digit and a symbol.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryAuth,
	},
	AuthVerificationInvalid: {
		Message:     "email verification code wrong or expired",
		UserMessage: "That verification code is invalid or has expired.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryAuth,
	},
	AuthWrongPassword: {
		Message:     "current password did not match on change-password",
		UserMessage: "Your current password is incorrect.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryAuth,
	},

	ValidationRequiredField: {
		Message:     "request missing a required field",
		UserMessage: "Please fill in all required fields.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryValidation,
	},
	ValidationInvalidFormat: {
		Message:     "request field failed format validation",
		UserMessage: "Some fields contain invalid values.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryValidation,
	},
	ValidationFormStructure: {
		Message:     "application form structure is invalid",
		UserMessage: "The application form is malformed.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryValidation,
	},
	ValidationLastPage: {
		Message:     "attempted to delete the only remaining form page",
		UserMessage: "A form must keep at least one page.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryValidation,
	},
	ValidationQuestionType: {
		Message:     "unknown question type",
		UserMessage: "This question type is not supported.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryValidation,
	},
	ValidationAnswerRequired: {
		Message:     "one or more required questions are unanswered",
		UserMessage: "Please answer all required questions.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryValidation,
	},
	ValidationDuplicateSubmission: {
		Message:     "form does not allow multiple submissions per applicant",
		UserMessage: "You have already applied to this opportunity.",
		StatusCode:  http.StatusConflict,
		Category:    CategoryValidation,
	},
	ValidationEmailRequired: {
		Message:     "form collects email but none was provided",
		UserMessage: "This application requires your email address.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryValidation,
	},
	ValidationInvalidStatus: {
		Message:     "unknown application status",
		UserMessage: "That status is not valid.",
		StatusCode:  http.StatusBadRequest,
		Category:    CategoryValidation,
	},

	NetworkUpstreamTimeout: {
		Message:     "upstream provider timed out",
		UserMessage: "The service is taking too long to respond. Please try again.",
		StatusCode:  http.StatusGatewayTimeout,
		Category:    CategoryNetwork,
	},
	NetworkUpstreamUnavailable: {
		Message:     "upstream provider unreachable",
		UserMessage: "A dependent service is unavailable. Please try again later.",
		StatusCode:  http.StatusBadGateway,
		Category:    CategoryNetwork,
	},
	NetworkAIProvider: {
		Message:     "AI provider returned an error",
		UserMessage: "The assistant is unavailable right now. Please try again later.",
		StatusCode:  http.StatusBadGateway,
		Category:    CategoryNetwork,
	},
	NetworkSearchSync: {
		Message:     "Algolia sync request failed",
		UserMessage: "Search index sync failed. Please try again later.",
		StatusCode:  http.StatusBadGateway,
		Category:    CategoryNetwork,
	},

	ServerInternal: {
		Message:     "unexpected internal error",
		UserMessage: "Something went wrong on our side. Please try again.",
		StatusCode:  http.StatusInternalServerError,
		Category:    CategoryServer,
	},
	ServerDatabase: {
		Message:     "database operation failed",
		UserMessage: "Something went wrong on our side. Please try again.",
		StatusCode:  http.StatusInternalServerError,
		Category:    CategoryServer,
	},
	ServerCache: {
		Message:     "cache operation failed",
		UserMessage: "Something went wrong on our side. Please try again.",
		StatusCode:  http.StatusInternalServerError,
		Category:    CategoryServer,
	},
	ServerEmail: {
		Message:     "email delivery failed",
		UserMessage: "We could not send the email. Please try again later.",
		StatusCode:  http.StatusInternalServerError,
		Category:    CategoryServer,
	},
	ServerUpload: {
		Message:     "file upload failed",
		UserMessage: "The upload failed. Please try again.",
		StatusCode:  http.StatusInternalServerError,
		Category:    CategoryServer,
	},

	PermissionDenied: {
		Message:     "caller lacks permission for this operation",
		UserMessage: "You do not have permission to do that.",
		StatusCode:  http.StatusForbidden,
		Category:    CategoryPermission,
	},
	PermissionNotOwner: {
		Message:     "caller does not own the target resource",
		UserMessage: "Only the owner can modify this opportunity.",
		StatusCode:  http.StatusForbidden,
		Category:    CategoryPermission,
	},
	PermissionAdminRequired: {
		Message:     "admin role required",
		UserMessage: "This action requires administrator access.",
		StatusCode:  http.StatusForbidden,
		Category:    CategoryPermission,
	},
	PermissionModerationRejected: {
		Message:     "listing failed content moderation",
		UserMessage: "Your opportunity could not be published. Please review the issues and edit your listing.",
		StatusCode:  http.StatusUnprocessableEntity,
		Category:    CategoryPermission,
	},

	NotFoundOpportunity: {
		Message:     "opportunity does not exist",
		UserMessage: "This opportunity could not be found.",
		StatusCode:  http.StatusNotFound,
		Category:    CategoryNotFound,
	},
	NotFoundUser: {
		Message:     "user does not exist",
		UserMessage: "This account could not be found.",
		StatusCode:  http.StatusNotFound,
		Category:    CategoryNotFound,
	},
	NotFoundBookmark: {
		Message:     "bookmark does not exist",
		UserMessage: "This bookmark could not be found.",
		StatusCode:  http.StatusNotFound,
		Category:    CategoryNotFound,
	},
	NotFoundApplication: {
		Message:     "application does not exist",
		UserMessage: "This application could not be found.",
		StatusCode:  http.StatusNotFound,
		Category:    CategoryNotFound,
	},
	NotFoundForm: {
		Message:     "opportunity has no application form",
		UserMessage: "This opportunity does not accept applications yet.",
		StatusCode:  http.StatusNotFound,
		Category:    CategoryNotFound,
	},
	NotFoundSession: {
		Message:     "discovery session expired or never existed",
		UserMessage: "Your discovery session has expired. Please start again.",
		StatusCode:  http.StatusNotFound,
		Category:    CategoryNotFound,
	},
	NotFoundRoute: {
		Message:     "no such API route",
		UserMessage: "The requested resource could not be found.",
		StatusCode:  http.StatusNotFound,
		Category:    CategoryNotFound,
	},

	RateLimitExceeded: {
		Message:     "per-IP request budget exhausted",
		UserMessage: "Too many requests. Please slow down and try again.",
		StatusCode:  http.StatusTooManyRequests,
		Category:    CategoryRateLimit,
	},
	RateLimitAI: {
		Message:     "AI request budget exhausted",
		UserMessage: "You have reached the assistant usage limit. Please try again later.",
		StatusCode:  http.StatusTooManyRequests,
		Category:    CategoryRateLimit,
	},
}

// New returns a fresh copy of the registered error for code. Unknown codes
// fall back to SERVER_INTERNAL so callers can never produce an untyped error.
func New(code string) *AppError {
	entry, ok := registry[code]
	if !ok {
		entry = registry[ServerInternal]
		code = ServerInternal
	}
	e := entry
	e.Code = code
	return &e
}

// Wrap is New with an underlying cause attached for logs.
func Wrap(code string, err error) *AppError {
	e := New(code)
	e.Err = err
	return e
}

// ByCode reports the registered error for code, or nil if unknown.
func ByCode(code string) *AppError {
	entry, ok := registry[code]
	if !ok {
		return nil
	}
	e := entry
	e.Code = code
	return &e
}

// FromStatus classifies an upstream HTTP status. Used only when translating
// responses from providers this service calls; local errors are always
// constructed with their own code.
func FromStatus(status int) *AppError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return New(AuthTokenInvalid)
	case status == http.StatusNotFound:
		return New(NotFoundRoute)
	case status == http.StatusTooManyRequests:
		return New(RateLimitExceeded)
	case status == http.StatusGatewayTimeout:
		return New(NetworkUpstreamTimeout)
	case status >= 500:
		return New(NetworkUpstreamUnavailable)
	case status >= 400:
		return New(ValidationInvalidFormat)
	default:
		return New(ServerInternal)
	}
}

// Codes lists every registered code, for diagnostics.
func Codes() []string {
	out := make([]string, 0, len(registry))
	for code := range registry {
		out = append(out, code)
	}
	return out
}
