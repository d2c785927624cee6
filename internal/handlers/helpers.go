package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/authorization"
	"depanku-backend/pkg/logger"
)

// errorBody is the JSON error envelope every endpoint shares. Optional
// members are omitted unless the error carries them.
type errorBody struct {
	Code            string                `json:"code"`
	Category        apperrors.Category    `json:"category"`
	Message         string                `json:"message"`
	Issues          []string              `json:"issues,omitempty"`
	ModerationNotes string                `json:"moderation_notes,omitempty"`
	Fields          []apperrors.FieldError `json:"fields,omitempty"`
}

// respondError maps any error onto the taxonomy. Errors created outside
// the registry degrade to SERVER_INTERNAL rather than leaking internals.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Wrap(apperrors.ServerInternal, err)
	}

	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error(appErr.Err, appErr.Message, map[string]interface{}{
			"code":       appErr.Code,
			"path":       c.FullPath(),
			"request_id": c.GetString("request_id"),
		})
	}

	c.JSON(appErr.StatusCode, gin.H{"error": errorBody{
		Code:            appErr.Code,
		Category:        appErr.Category,
		Message:         appErr.UserMessage,
		Issues:          appErr.Issues,
		ModerationNotes: appErr.ModerationNotes,
		Fields:          appErr.Fields,
	}})
}

func respondBindError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(apperrors.ValidationInvalidFormat, err)
	c.JSON(appErr.StatusCode, gin.H{"error": errorBody{
		Code:     appErr.Code,
		Category: appErr.Category,
		Message:  appErr.UserMessage,
	}})
}

func currentUserID(c *gin.Context) uint {
	if id, exists := c.Get("user_id"); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

func currentRole(c *gin.Context) authorization.UserRole {
	if value, exists := c.Get("role"); exists {
		if role, ok := authorization.ParseUserRole(value); ok {
			return role
		}
	}
	return authorization.RoleUser
}

func hasPermission(c *gin.Context, permission authorization.Permission) bool {
	return authorization.RoleHasPermission(currentRole(c), permission)
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondError(c, apperrors.New(apperrors.ValidationInvalidFormat))
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}

// withGeneration echoes the client's X-Request-Generation header into a
// list payload so stale async responses can be discarded client-side.
func withGeneration(c *gin.Context, payload gin.H) gin.H {
	if generation := c.GetHeader("X-Request-Generation"); generation != "" {
		payload["generation"] = generation
	}
	return payload
}
