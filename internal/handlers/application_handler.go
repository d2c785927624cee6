package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/authorization"
	"depanku-backend/internal/models"
	"depanku-backend/internal/service"
)

type ApplicationHandler struct {
	applicationService *service.ApplicationService
}

func NewApplicationHandler(applicationService *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

func (h *ApplicationHandler) Submit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	application, err := h.applicationService.Submit(id, currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"application": application})
}

// ListForOpportunity is the reviewer view, filterable by status.
func (h *ApplicationHandler) ListForOpportunity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	applications, err := h.applicationService.ListForOpportunity(
		id, currentUserID(c), hasPermission(c, authorization.PermissionReviewApplications), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withGeneration(c, gin.H{"applications": applications}))
}

// Mine lists the caller's own submissions across all listings.
func (h *ApplicationHandler) Mine(c *gin.Context) {
	applications, err := h.applicationService.ListMine(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withGeneration(c, gin.H{"applications": applications}))
}

func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	application, err := h.applicationService.UpdateStatus(id, currentUserID(c), hasPermission(c, authorization.PermissionReviewApplications), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"application": application})
}
