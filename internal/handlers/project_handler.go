package handlers

import (
	"net/http"
	"strconv"

	"talentbridge/config"
	"talentbridge/internal/cache"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
)

// CreateProjectHandler создает проект бизнеса.
func CreateProjectHandler(c *gin.Context) {
	businessID := c.GetUint("user_id")

	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	project := models.Project{Name: input.Name, Status: "active", BusinessID: businessID}
	if err := config.DB.Create(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать проект"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindProjectChange, cache.EventContext{
		ID: &project.ID,
	})

	c.JSON(http.StatusCreated, project)
}

// GetProjectHandler возвращает проект с задачами.
func GetProjectHandler(c *gin.Context) {
	var project models.Project
	if err := config.DB.Preload("Tasks").First(&project, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProjectHandler меняет имя или статус проекта.
func UpdateProjectHandler(c *gin.Context) {
	var project models.Project
	if err := config.DB.First(&project, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Проект не найден"})
		return
	}

	var input struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	if input.Name != "" {
		project.Name = input.Name
	}
	if input.Status != "" {
		project.Status = input.Status
	}
	if err := config.DB.Save(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить проект"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindProjectChange, cache.EventContext{
		ID: &project.ID,
	})

	c.JSON(http.StatusOK, project)
}

// CreateTaskHandler добавляет задачу в проект.
func CreateTaskHandler(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID проекта"})
		return
	}

	var input struct {
		Title      string `json:"title" binding:"required"`
		AssigneeID *uint  `json:"assigneeId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	task := models.Task{
		ProjectID:  uint(projectID),
		Title:      input.Title,
		Status:     "todo",
		AssigneeID: input.AssigneeID,
	}
	if err := config.DB.Create(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать задачу"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindTaskChange, cache.EventContext{
		ID:        &task.ID,
		ProjectID: &task.ProjectID,
	})

	c.JSON(http.StatusCreated, task)
}

// UpdateTaskStatusHandler меняет статус задачи.
func UpdateTaskStatusHandler(c *gin.Context) {
	var task models.Task
	if err := config.DB.First(&task, c.Param("taskId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Задача не найдена"})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	task.Status = input.Status
	if err := config.DB.Save(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить задачу"})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindTaskChange, cache.EventContext{
		ID:        &task.ID,
		ProjectID: &task.ProjectID,
	})

	c.JSON(http.StatusOK, task)
}
