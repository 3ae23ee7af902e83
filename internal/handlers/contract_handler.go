package handlers

import (
	"net/http"
	"strconv"
	"time"

	"talentbridge/config"
	"talentbridge/internal/cache"
	"talentbridge/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateContractInput — данные нового договора с этапами.
type CreateContractInput struct {
	Title        string     `json:"title" binding:"required"`
	ContractorID uint       `json:"contractorId" binding:"required"`
	ProjectID    *uint      `json:"projectId"`
	TotalAmount  int64      `json:"totalAmount" binding:"required,gt=0"` // минорные единицы
	Currency     string     `json:"currency" binding:"required,len=3"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
	Milestones   []struct {
		Title   string     `json:"title" binding:"required"`
		Amount  int64      `json:"amount" binding:"required,gt=0"`
		DueDate *time.Time `json:"dueDate"`
	} `json:"milestones"`
}

// CreateContractHandler создает договор вместе с этапами одной транзакцией.
func CreateContractHandler(c *gin.Context) {
	businessID := c.GetUint("user_id")

	var input CreateContractInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	contract := models.Contract{
		Title:        input.Title,
		Status:       "draft",
		TotalAmount:  input.TotalAmount,
		Currency:     input.Currency,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		BusinessID:   businessID,
		ContractorID: input.ContractorID,
		ProjectID:    input.ProjectID,
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		for _, m := range input.Milestones {
			milestone := models.Milestone{
				ContractID: contract.ID,
				Title:      m.Title,
				Amount:     m.Amount,
				Status:     "open",
				DueDate:    m.DueDate,
			}
			if err := tx.Create(&milestone).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать договор: " + err.Error()})
		return
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindContractChange, cache.EventContext{
		ID:        &contract.ID,
		ProjectID: contract.ProjectID,
	})

	c.JSON(http.StatusCreated, contract)
}

// GetContractHandler возвращает договор с этапами.
func GetContractHandler(c *gin.Context) {
	var contract models.Contract
	if err := config.DB.Preload("Milestones").First(&contract, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Договор не найден"})
		return
	}
	c.JSON(http.StatusOK, contract)
}

// ListContractsHandler возвращает договоры текущего пользователя.
func ListContractsHandler(c *gin.Context) {
	userID := c.GetUint("user_id")

	query := config.DB.Model(&models.Contract{}).
		Where("business_id = ? OR contractor_id = ?", userID, userID)

	var totalRows int64
	if err := query.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать договоры"})
		return
	}

	var contracts []models.Contract
	if err := query.Scopes(Paginate(c)).Order("created_at DESC").Find(&contracts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить договоры"})
		return
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, contracts, totalRows))
}

// UpdateContractStatusHandler меняет статус договора или этапа.
func UpdateContractStatusHandler(c *gin.Context) {
	contractID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID договора"})
		return
	}

	var input struct {
		Status      string `json:"status" binding:"required"`
		MilestoneID *uint  `json:"milestoneId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректные данные: " + err.Error()})
		return
	}

	var contract models.Contract
	if err := config.DB.First(&contract, contractID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Договор не найден"})
		return
	}

	if input.MilestoneID != nil {
		result := config.DB.Model(&models.Milestone{}).
			Where("id = ? AND contract_id = ?", *input.MilestoneID, contract.ID).
			Update("status", input.Status)
		if result.Error != nil || result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Этап договора не найден"})
			return
		}
	} else {
		contract.Status = input.Status
		if err := config.DB.Save(&contract).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить договор"})
			return
		}
	}

	invalidator.InvalidateAfter(c.Request.Context(), cache.KindContractChange, cache.EventContext{
		ID:        &contract.ID,
		ProjectID: contract.ProjectID,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Статус обновлен"})
}
