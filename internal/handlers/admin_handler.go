package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/models"
	"depanku-backend/internal/repository"
	"depanku-backend/internal/service"
)

type AdminHandler struct {
	authService        *service.AuthService
	opportunityService *service.OpportunityService
	applicationService *service.ApplicationService
	algoliaService     *service.AlgoliaService
	opportunityRepo    repository.OpportunityRepository
	bookmarkRepo       repository.BookmarkRepository
	userRepo           repository.UserRepository
}

func NewAdminHandler(
	authService *service.AuthService,
	opportunityService *service.OpportunityService,
	applicationService *service.ApplicationService,
	algoliaService *service.AlgoliaService,
	opportunityRepo repository.OpportunityRepository,
	bookmarkRepo repository.BookmarkRepository,
	userRepo repository.UserRepository,
) *AdminHandler {
	return &AdminHandler{
		authService:        authService,
		opportunityService: opportunityService,
		applicationService: applicationService,
		algoliaService:     algoliaService,
		opportunityRepo:    opportunityRepo,
		bookmarkRepo:       bookmarkRepo,
		userRepo:           userRepo,
	}
}

// Stats powers the admin dashboard.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats := gin.H{}

	if byStatus, err := h.opportunityRepo.CountByStatus(); err == nil {
		stats["opportunities_by_status"] = byStatus
	}
	if byType, err := h.opportunityRepo.CountByType(); err == nil {
		stats["published_by_type"] = byType
	}
	if byAppStatus, err := h.applicationService.CountByStatus(); err == nil {
		stats["applications_by_status"] = byAppStatus
	}
	if users, err := h.userRepo.Count(); err == nil {
		stats["users"] = users
	}
	if bookmarks, err := h.bookmarkRepo.Count(); err == nil {
		stats["bookmarks"] = bookmarks
	}
	if top, err := h.opportunityRepo.GetTopViewed(10); err == nil {
		stats["top_viewed"] = top
	}
	if at := h.algoliaService.LastSync(); at != nil {
		stats["algolia_last_sync"] = at
	}

	c.JSON(http.StatusOK, stats)
}

// ListOpportunities shows every listing regardless of status or owner.
func (h *AdminHandler) ListOpportunities(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	filter := repository.OpportunityFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	opportunities, total, err := h.opportunityRepo.GetAll((page-1)*perPage, perPage, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withGeneration(c, gin.H{
		"opportunities": opportunities,
		"total":         total,
		"page":          page,
		"per_page":      perPage,
	}))
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.GetAllUsers(c.Query("q"), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withGeneration(c, gin.H{"users": users}))
}

type updateUserRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req updateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.UpdateUserRole(id, req.Role); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

type updateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req updateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.UpdateUserStatus(id, req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "status updated"})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.authService.DeleteUser(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

// SyncAlgolia pushes every published listing into the search index.
func (h *AdminHandler) SyncAlgolia(c *gin.Context) {
	full := c.Query("full") == "true"

	var (
		count int
		err   error
	)
	if full {
		count, err = h.algoliaService.ClearThenSyncAll()
	} else {
		count, err = h.algoliaService.SyncAll()
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"synced": count,
		"full":   full,
	})
}

// ModerateOpportunity lets an admin record review notes on a listing and
// optionally force it back to draft.
func (h *AdminHandler) ModerateOpportunity(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Notes     string `json:"notes"`
		Unpublish bool   `json:"unpublish"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	opp, err := h.opportunityService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Unpublish && opp.Status == models.OpportunityStatusPublished {
		unpublished, err := h.opportunityService.Unpublish(id, currentUserID(c), true)
		if err != nil {
			respondError(c, err)
			return
		}
		opp = unpublished
	}

	opp.ModerationNotes = req.Notes
	if err := h.opportunityRepo.Update(opp); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}
