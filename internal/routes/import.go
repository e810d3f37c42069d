package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
)

func runImportRouter(secureGroup *echo.Group, importCtrl *controllers.ImportController) {
	{
		secureGroup.POST("/import/assets", importCtrl.ImportAssets)
	}
}
