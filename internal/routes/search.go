package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
)

func runSearchRouter(secureGroup *echo.Group, searchCtrl *controllers.SearchController) {
	{
		secureGroup.GET("/search", searchCtrl.Search)
		secureGroup.GET("/key-groups", searchCtrl.KeyGroups)
		secureGroup.POST("/assets/reclassify-rentals", searchCtrl.ReclassifyRentalParents)
	}
}
