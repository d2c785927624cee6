package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/apperrors"
	"depanku-backend/internal/authorization"
	"depanku-backend/internal/models"
	"depanku-backend/internal/service"
)

type FormHandler struct {
	formService        *service.FormService
	opportunityService *service.OpportunityService
}

func NewFormHandler(formService *service.FormService, opportunityService *service.OpportunityService) *FormHandler {
	return &FormHandler{
		formService:        formService,
		opportunityService: opportunityService,
	}
}

// Get returns the application form of a listing for the renderer.
func (h *FormHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	opp, err := h.opportunityService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if opp.Form.IsEmpty() {
		respondError(c, apperrors.New(apperrors.NotFoundForm))
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": opp.Form})
}

// Save replaces the listing's form wholesale after structural validation.
func (h *FormHandler) Save(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.SaveFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.formService.SaveForm(id, currentUserID(c), hasPermission(c, authorization.PermissionManageAllListings), req.Form); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": req.Form})
}

// ValidatePage checks one page's answers while the applicant is filling
// the form. Passing here does not skip the full re-validation at submit.
func (h *FormHandler) ValidatePage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.ValidatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	opp, err := h.opportunityService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	if opp.Form.IsEmpty() {
		respondError(c, apperrors.New(apperrors.NotFoundForm))
		return
	}

	fieldErrors := h.formService.ValidatePage(opp.Form, req.PageID, req.Answers)
	c.JSON(http.StatusOK, gin.H{
		"valid":  len(fieldErrors) == 0,
		"fields": fieldErrors,
	})
}
