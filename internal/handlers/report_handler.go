package handlers

import (
	"fmt"
	"net/http"
	"time"

	"talentbridge/internal/payments"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportPayoutsHandler выгружает историю выплат исполнителя в XLSX.
// Суммы переводятся в основные единицы только здесь, при выгрузке.
func ExportPayoutsHandler(c *gin.Context) {
	account, ok := contractorAccount(c)
	if !ok {
		return
	}

	payouts, err := earnings.GetPayouts(c.Request.Context(), account.ExternalAccountID, 100)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Не удалось получить выплаты у провайдера"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Выплаты"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID выплаты", "Сумма", "Валюта", "Статус", "Создана", "Зачислена"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, payout := range payouts {
		values := []interface{}{
			payout.ID,
			payments.ToMajorUnits(payout.Amount),
			payout.Currency,
			payout.Status,
			time.Unix(payout.Created, 0).UTC().Format("2006-01-02"),
			time.Unix(payout.ArrivalDate, 0).UTC().Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	fileName := fmt.Sprintf("payouts_%d_%s.xlsx", account.ContractorID, time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сформировать файл"})
	}
}
