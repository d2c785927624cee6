package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/authorization"
	"depanku-backend/internal/models"
	"depanku-backend/internal/service"
)

type OpportunityHandler struct {
	opportunityService *service.OpportunityService
	bookmarkService    *service.BookmarkService
	searchService      *service.SearchService
}

func NewOpportunityHandler(
	opportunityService *service.OpportunityService,
	bookmarkService *service.BookmarkService,
	searchService *service.SearchService,
) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		bookmarkService:    bookmarkService,
		searchService:      searchService,
	}
}

// List is the public directory: published listings only, filterable by
// type, tag and free-text query.
func (h *OpportunityHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)

	if q := c.Query("q"); q != "" {
		opportunities, err := h.searchService.Search(q, perPage)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, withGeneration(c, gin.H{
			"opportunities": opportunities,
			"total":         int64(len(opportunities)),
			"page":          1,
			"per_page":      perPage,
		}))
		return
	}

	result, err := h.opportunityService.List(page, perPage, c.Query("type"), c.Query("tag"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withGeneration(c, gin.H{
		"opportunities": result.Opportunities,
		"total":         result.Total,
		"page":          result.Page,
		"per_page":      result.PerPage,
	}))
}

func (h *OpportunityHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	opp, err := h.opportunityService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	// Drafts are visible to their owner and to moderation-capable roles only.
	if !opp.IsPublished() && !hasPermission(c, authorization.PermissionModerateListings) && opp.OwnerID != currentUserID(c) {
		respondError(c, apperrors.New(apperrors.NotFoundOpportunity))
		return
	}

	if opp.IsPublished() {
		h.opportunityService.RecordView(opp.ID)
	}

	payload := gin.H{"opportunity": opp}
	if userID := currentUserID(c); userID != 0 {
		if bookmarked, err := h.bookmarkService.IsBookmarked(userID, opp.ID); err == nil {
			payload["bookmarked"] = bookmarked
		}
	}

	c.JSON(http.StatusOK, payload)
}

func (h *OpportunityHandler) GetBySlug(c *gin.Context) {
	opp, err := h.opportunityService.GetBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}

	if !opp.IsPublished() && !hasPermission(c, authorization.PermissionModerateListings) && opp.OwnerID != currentUserID(c) {
		respondError(c, apperrors.New(apperrors.NotFoundOpportunity))
		return
	}

	if opp.IsPublished() {
		h.opportunityService.RecordView(opp.ID)
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

func (h *OpportunityHandler) Create(c *gin.Context) {
	var req models.CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	opp, err := h.opportunityService.Create(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"opportunity": opp})
}

func (h *OpportunityHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	opp, err := h.opportunityService.Update(id, currentUserID(c), hasPermission(c, authorization.PermissionManageAllListings), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

func (h *OpportunityHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.opportunityService.Delete(id, currentUserID(c), hasPermission(c, authorization.PermissionManageAllListings)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "opportunity deleted"})
}

func (h *OpportunityHandler) Publish(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	opp, err := h.opportunityService.Publish(id, currentUserID(c), hasPermission(c, authorization.PermissionManageAllListings))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

func (h *OpportunityHandler) Unpublish(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	opp, err := h.opportunityService.Unpublish(id, currentUserID(c), hasPermission(c, authorization.PermissionManageAllListings))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"opportunity": opp})
}

// Mine lists the caller's own listings, drafts included.
func (h *OpportunityHandler) Mine(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 20)

	result, err := h.opportunityService.ListMine(currentUserID(c), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withGeneration(c, gin.H{
		"opportunities": result.Opportunities,
		"total":         result.Total,
		"page":          result.Page,
		"per_page":      result.PerPage,
	}))
}

func (h *OpportunityHandler) Templates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.opportunityService.Templates()})
}

func (h *OpportunityHandler) TagPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": h.opportunityService.TagPresets()})
}
