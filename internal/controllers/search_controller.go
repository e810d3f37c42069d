package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"asset-system/internal/services"
	"asset-system/pkg/utils"
)

type SearchController struct {
	searchService *services.SearchService
	logger        *zap.Logger
}

func NewSearchController(searchService *services.SearchService, logger *zap.Logger) *SearchController {
	return &SearchController{
		searchService: searchService,
		logger:        logger,
	}
}

func (c *SearchController) Search(ctx echo.Context) error {
	result, err := c.searchService.Search(ctx.Request().Context(), ctx.QueryParam("q"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, result, "Результаты поиска получены", http.StatusOK)
}

func (c *SearchController) KeyGroups(ctx echo.Context) error {
	groups, err := c.searchService.KeyGroups(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, groups, "Группы ключей получены", http.StatusOK, uint64(len(groups)))
}

func (c *SearchController) ReclassifyRentalParents(ctx echo.Context) error {
	changed, err := c.searchService.ReclassifyRentalParents(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	body := map[string]interface{}{"changed": changed}
	return utils.SuccessResponse(ctx, body, "Типы активов приведены в порядок", http.StatusOK)
}
