package controllers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/services"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/utils"
	"asset-system/pkg/websocket"
)

type AuditController struct {
	auditService *services.AuditService
	hub          *websocket.Hub
	logger       *zap.Logger
}

func NewAuditController(auditService *services.AuditService, hub *websocket.Hub, logger *zap.Logger) *AuditController {
	return &AuditController{
		auditService: auditService,
		hub:          hub,
		logger:       logger,
	}
}

func (c *AuditController) SubmitAudit(ctx echo.Context) error {
	var payload dto.SubmitAuditDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Ошибка валидации", err, nil),
			c.logger)
	}

	summary, err := c.auditService.SubmitAudit(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	if orgID, err := utils.GetOrgIDFromCtx(ctx.Request().Context()); err == nil {
		_ = c.hub.SendMessageToOrg(orgID, summary, websocket.MessageTypeAuditSubmitted)
	}

	return utils.SuccessResponse(ctx, summary, "Инвентаризация успешно проведена", http.StatusCreated)
}

func (c *AuditController) GetAudits(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	audits, total, err := c.auditService.GetAudits(ctx.Request().Context(), uint64(filter.Limit), uint64(filter.Offset))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, audits, "Список инвентаризаций успешно получен", http.StatusOK, total)
}

func (c *AuditController) FindAudit(ctx echo.Context) error {
	audit, err := c.auditService.FindAudit(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, audit, "Инвентаризация успешно получена", http.StatusOK)
}

var auditReportHeaders = []interface{}{
	"ID актива", "Бирка", "Название", "Зона", "Текущий статус",
}

// ExportAudit отдаёт xlsx-выгрузку недостачи по одной инвентаризации.
func (c *AuditController) ExportAudit(ctx echo.Context) error {
	record, rows, err := c.auditService.MissingKeyRows(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	const sheetTitle = "Недостача"
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetTitle)
	f.SetSheetRow(sheetTitle, "A1", &[]interface{}{"Инвентаризация", record.ID})
	f.SetSheetRow(sheetTitle, "A2", &[]interface{}{"Провёл", record.PerformedBy})
	f.SetSheetRow(sheetTitle, "A3", &[]interface{}{"Дата", record.CreatedAt.Format("02.01.2006 15:04")})
	f.SetSheetRow(sheetTitle, "A5", &auditReportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheetTitle, "A5", "E5", style)

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+6)
		values := []interface{}{row.AssetID, row.Code, row.Name, row.Area, row.Status}
		f.SetSheetRow(sheetTitle, cell, &values)
	}
	f.SetColWidth(sheetTitle, "A", "A", 38)
	f.SetColWidth(sheetTitle, "B", "C", 25)

	fileName := fmt.Sprintf("audit_%s.xlsx", record.CreatedAt.Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}
