package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"research-cms-server/internal/models"
	"research-cms-server/internal/repo"
	"research-cms-server/internal/services"
	"research-cms-server/internal/utils"
)

type ResearcherHandler struct {
	researchers *services.ResearcherService
}

type ResearcherRequest struct {
	Name        string  `json:"name" binding:"required"`
	Title       string  `json:"title" binding:"required"`
	Field       string  `json:"field" binding:"required"`
	Bio         *string `json:"bio"`
	Email       *string `json:"email"`
	PhotoURL    *string `json:"photo_url"`
	DisplayRank int     `json:"display_rank"`
	IsPublished bool    `json:"is_published"`
}

func NewResearcherHandler(researchers *services.ResearcherService) *ResearcherHandler {
	return &ResearcherHandler{researchers: researchers}
}

func (h *ResearcherHandler) Create(c *gin.Context) {
	var req ResearcherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	created, err := h.researchers.Create(c.Request.Context(), researcherFromRequest(req))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.RespondCreated(c, created)
}

func (h *ResearcherHandler) List(c *gin.Context) {
	filters := repo.ResearcherFilters{
		Search:        c.Query("search"),
		Field:         c.Query("field"),
		PublishedOnly: c.Query("published") == "true",
		SortBy:        c.Query("sort_by"),
		SortDir:       c.Query("sort_dir"),
		Page:          parseIntDefault(c.Query("page"), 1),
		PerPage:       parseIntDefault(c.Query("per_page"), 10),
	}

	items, total, err := h.researchers.List(c.Request.Context(), filters)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if items == nil {
		items = []models.Researcher{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data": items,
		"meta": utils.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *ResearcherHandler) GetByID(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondValidationError(c, "invalid id")
		return
	}

	item, err := h.researchers.GetByID(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, utils.NewAppError(http.StatusNotFound, "NOT_FOUND", "researcher not found", nil))
		return
	}

	c.JSON(http.StatusOK, item)
}

func (h *ResearcherHandler) Update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondValidationError(c, "invalid id")
		return
	}

	var req ResearcherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationError(c, err.Error())
		return
	}

	res := researcherFromRequest(req)
	res.ID = id
	updated, err := h.researchers.Update(c.Request.Context(), res)
	if err != nil {
		utils.RespondError(c, utils.NewAppError(http.StatusNotFound, "NOT_FOUND", "researcher not found", nil))
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *ResearcherHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		utils.RespondValidationError(c, "invalid id")
		return
	}

	deleted, err := h.researchers.Delete(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if !deleted {
		utils.RespondError(c, utils.NewAppError(http.StatusNotFound, "NOT_FOUND", "researcher not found", nil))
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func researcherFromRequest(req ResearcherRequest) *models.Researcher {
	return &models.Researcher{
		Name:        req.Name,
		Title:       req.Title,
		Field:       req.Field,
		Bio:         req.Bio,
		Email:       req.Email,
		PhotoURL:    req.PhotoURL,
		DisplayRank: req.DisplayRank,
		IsPublished: req.IsPublished,
	}
}

func parseID(value string) (int64, error) {
	return strconv.ParseInt(value, 10, 64)
}

func parseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
