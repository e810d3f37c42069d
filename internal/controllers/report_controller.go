package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	"asset-system/pkg/utils"
)

type ReportController struct {
	reportService *services.ReportService
	logger        *zap.Logger
}

func NewReportController(reportService *services.ReportService, logger *zap.Logger) *ReportController {
	return &ReportController{
		reportService: reportService,
		logger:        logger,
	}
}

func (c *ReportController) ActiveLoans(ctx echo.Context) error {
	rows, err := c.reportService.ActiveLoans(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if ctx.QueryParam("format") == "xlsx" {
		return c.respondWithXLSX(ctx, "Активные выдачи", rows)
	}
	return utils.SuccessResponse(ctx, rows, "Отчёт по активным выдачам получен", http.StatusOK, uint64(len(rows)))
}

func (c *ReportController) Overdue(ctx echo.Context) error {
	rows, err := c.reportService.Overdue(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if ctx.QueryParam("format") == "xlsx" {
		return c.respondWithXLSX(ctx, "Просроченные выдачи", rows)
	}
	return utils.SuccessResponse(ctx, rows, "Отчёт по просрочке получен", http.StatusOK, uint64(len(rows)))
}

func (c *ReportController) Holders(ctx echo.Context) error {
	groups, err := c.reportService.Holders(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, groups, "Сводка по держателям получена", http.StatusOK, uint64(len(groups)))
}

var loanReportHeaders = []interface{}{
	"ID", "Название", "Тип", "Статус", "Держатель", "Компания", "Выдан", "Вернуть до", "Просрочен",
}

func (c *ReportController) respondWithXLSX(ctx echo.Context, sheetTitle string, rows []dto.LoanRowDTO) error {
	const dateFmt = "02.01.2006 15:04"

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetTitle)
	f.SetSheetRow(sheetTitle, "A1", &loanReportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheetTitle, "A1", "I1", style)

	for i, row := range rows {
		checkedOutAt, dueDate, overdue := "", "", "нет"
		if row.CheckedOutAt.Valid {
			checkedOutAt = row.CheckedOutAt.Time.Format(dateFmt)
		}
		if row.DueDate.Valid {
			dueDate = row.DueDate.Time.Format(dateFmt)
		}
		if row.Overdue {
			overdue = "да"
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []interface{}{
			row.AssetID, row.AssetName, row.Type, row.Status, row.Holder,
			row.Company.String, checkedOutAt, dueDate, overdue,
		}
		f.SetSheetRow(sheetTitle, cell, &values)
	}
	f.SetColWidth(sheetTitle, "A", "A", 30)
	f.SetColWidth(sheetTitle, "B", "B", 35)
	f.SetColWidth(sheetTitle, "E", "F", 25)
	f.SetColWidth(sheetTitle, "G", "H", 18)

	fileName := fmt.Sprintf("loans_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
