package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/models"
	"depanku-backend/internal/service"
)

type SettingsHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
}

func NewSettingsHandler(authService *service.AuthService, profileService *service.ProfileService) *SettingsHandler {
	return &SettingsHandler{
		authService:    authService,
		profileService: profileService,
	}
}

func (h *SettingsHandler) currentUser(c *gin.Context) (*models.User, bool) {
	user, err := h.authService.GetUserByID(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return user, true
}

func (h *SettingsHandler) GetProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       user,
		"completion": h.profileService.Completion(user),
	})
}

func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updated, err := h.profileService.UpdateProfile(user, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       updated,
		"completion": h.profileService.Completion(updated),
	})
}

func (h *SettingsHandler) Completion(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"completion": h.profileService.Completion(user)})
}

func (h *SettingsHandler) UpdatePicture(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("picture")
	if err != nil {
		respondError(c, apperrors.New(apperrors.ValidationRequiredField))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(c, apperrors.Wrap(apperrors.ServerUpload, err))
		return
	}

	updated, err := h.profileService.UpdatePicture(user, header.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

func (h *SettingsHandler) DeletePicture(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	updated, err := h.profileService.RemovePicture(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}

func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ChangePassword(currentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (h *SettingsHandler) GetNotifications(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": user.Notifications})
}

func (h *SettingsHandler) UpdateNotifications(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateNotificationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.profileService.UpdateNotificationSettings(user, req.Settings); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": user.Notifications})
}

func (h *SettingsHandler) GetPrivacy(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": user.Privacy})
}

func (h *SettingsHandler) UpdatePrivacy(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req models.UpdatePrivacySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.profileService.UpdatePrivacySettings(user, req.Settings); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": user.Privacy})
}
