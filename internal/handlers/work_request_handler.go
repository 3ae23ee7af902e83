package handlers

import (
	"net/http"
	"strconv"

	"talentbridge/config"
	"talentbridge/internal/cache"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
)

// CreateWorkRequestInput — новая заявка на подключение исполнителя.
type CreateWorkRequestInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ProjectID   *uint  `json:"projectId"`
	Budget      int64  `json:"budget"` // минорные единицы
	Currency    string `json:"currency" binding:"omitempty,len=3"`
}

// CreateWorkRequestHandler создает заявку.
func CreateWorkRequestHandler(c *gin.Context) {
	businessID := c.GetUint("user_id")

	var input CreateWorkRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	request := models.WorkRequest{
		Title:       input.Title,
		Description: input.Description,
		Status:      "open",
		BusinessID:  businessID,
		ProjectID:   input.ProjectID,
		Budget:      input.Budget,
		Currency:    input.Currency,
	}
	if err := config.DB.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать заявку"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindWorkRequestCreate, cache.EventContext{
		ID:        &request.ID,
		ProjectID: request.ProjectID,
	})

	c.JSON(http.StatusCreated, request)
}

// UpdateWorkRequestHandler меняет статус или исполнителя заявки.
func UpdateWorkRequestHandler(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID заявки"})
		return
	}

	var input struct {
		Status       string `json:"status"`
		ContractorID *uint  `json:"contractorId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	var request models.WorkRequest
	if err := config.DB.First(&request, requestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
		return
	}

	if input.Status != "" {
		request.Status = input.Status
	}
	if input.ContractorID != nil {
		request.ContractorID = input.ContractorID
	}
	if err := config.DB.Save(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить заявку"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindWorkRequestChange, cache.EventContext{
		ID:        &request.ID,
		ProjectID: request.ProjectID,
	})

	c.JSON(http.StatusOK, request)
}

// ListWorkRequestsHandler возвращает заявки, при необходимости по проекту.
func ListWorkRequestsHandler(c *gin.Context) {
	query := config.DB.Model(&models.WorkRequest{})
	if projectID := c.Query("project_id"); projectID != "" {
		query = query.Where("project_id = ?", projectID)
	}

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать заявки"})
		return
	}

	var requests []models.WorkRequest
	if err := query.Scopes(Paginate(c)).Order("created_at DESC").Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить заявки"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, requests, totalRows))
}
