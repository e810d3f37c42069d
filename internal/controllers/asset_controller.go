package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/dto"
	"asset-system/internal/entities"
	"asset-system/internal/repositories"
	"asset-system/internal/services"
	apperrors "asset-system/pkg/errors"
	"asset-system/pkg/utils"
)

type AssetController struct {
	assetService *services.AssetService
	logger       *zap.Logger
}

func NewAssetController(assetService *services.AssetService, logger *zap.Logger) *AssetController {
	return &AssetController{
		assetService: assetService,
		logger:       logger,
	}
}

func (c *AssetController) GetAssets(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())

	storeFilter := repositories.AssetFilter{}
	if raw, ok := filter.Filter["type"].(string); ok && raw != "" {
		t := entities.AssetType(raw)
		storeFilter.Type = &t
	}
	if raw, ok := filter.Filter["status"].(string); ok && raw != "" {
		st := entities.AssetStatus(raw)
		storeFilter.Status = &st
	}

	assets, err := c.assetService.GetAssets(ctx.Request().Context(), storeFilter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, assets, "Список активов успешно получен", http.StatusOK, uint64(len(assets)))
}

func (c *AssetController) FindAsset(ctx echo.Context) error {
	asset, err := c.assetService.FindAsset(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, asset, "Актив успешно получен", http.StatusOK)
}

func (c *AssetController) CreateAsset(ctx echo.Context) error {
	var payload dto.CreateAssetDTO
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

	asset, err := c.assetService.CreateAsset(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, asset, "Актив успешно создан", http.StatusCreated)
}

func (c *AssetController) UpdateAsset(ctx echo.Context) error {
	var payload dto.UpdateAssetDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger)
	}

	asset, err := c.assetService.UpdateAsset(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, asset, "Актив успешно обновлён", http.StatusOK)
}

func (c *AssetController) DeleteAsset(ctx echo.Context) error {
	if err := c.assetService.DeleteAsset(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Актив успешно удалён", http.StatusOK)
}

// DeleteAllAssets стирает коллекцию организации целиком. Операция
// необратима, поэтому требует подтверждения в query: ?confirm=DELETE.
func (c *AssetController) DeleteAllAssets(ctx echo.Context) error {
	if ctx.QueryParam("confirm") != "DELETE" {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest,
				"Массовое удаление требует подтверждения: ?confirm=DELETE", nil, nil),
			c.logger)
	}

	deleted, batches, err := c.assetService.DeleteAllAssets(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	body := map[string]interface{}{"deleted": deleted, "batches": batches}
	return utils.SuccessResponse(ctx, body, "Коллекция активов удалена", http.StatusOK)
}

func (c *AssetController) CheckOut(ctx echo.Context) error {
	var payload dto.CheckOutDTO
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

	asset, err := c.assetService.CheckOut(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, asset, "Актив успешно выдан", http.StatusOK)
}

func (c *AssetController) CheckIn(ctx echo.Context) error {
	var payload dto.CheckInDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger)
	}

	asset, err := c.assetService.CheckIn(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, asset, "Актив успешно возвращён", http.StatusOK)
}

func (c *AssetController) ReportMissing(ctx echo.Context) error {
	var payload dto.ReportMissingDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Неверный формат запроса", err, nil),
			c.logger)
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx,
			apperrors.NewHttpError(http.StatusBadRequest, "Причина утери обязательна", err, nil),
			c.logger)
	}

	asset, err := c.assetService.ReportMissing(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, asset, "Актив отмечен как утерянный", http.StatusOK)
}
