package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/services"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/utils"
)

type ImportController struct {
	importService *services.ImportService
	logger        *zap.Logger
}

func NewImportController(importService *services.ImportService, logger *zap.Logger) *ImportController {
	return &ImportController{
		importService: importService,
		logger:        logger,
	}
}

// ImportAssets принимает multipart-файл в поле "file" и запускает
// построчный импорт. Ответ содержит счётчики и список ошибок по строкам.
func (c *ImportController) ImportAssets(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Файл не найден в поле 'file'", err, nil),
			c.logger)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Не удалось открыть загруженный файл", err, nil),
			c.logger)
	}
	defer src.Close()

	result, err := c.importService.ImportAssets(ctx.Request().Context(), src)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, result, "Импорт завершён", http.StatusOK)
}
