package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
)

func runAssetRouter(secureGroup *echo.Group, assetCtrl *controllers.AssetController, logCtrl *controllers.LogController) {
	{
		secureGroup.GET("/assets", assetCtrl.GetAssets)
		secureGroup.POST("/assets", assetCtrl.CreateAsset)
		secureGroup.DELETE("/assets", assetCtrl.DeleteAllAssets)
		secureGroup.GET("/assets/:id", assetCtrl.FindAsset)
		secureGroup.PUT("/assets/:id", assetCtrl.UpdateAsset)
		secureGroup.DELETE("/assets/:id", assetCtrl.DeleteAsset)

		secureGroup.POST("/assets/:id/checkout", assetCtrl.CheckOut)
		secureGroup.POST("/assets/:id/checkin", assetCtrl.CheckIn)
		secureGroup.POST("/assets/:id/report-missing", assetCtrl.ReportMissing)

		secureGroup.GET("/assets/:id/history", logCtrl.GetAssetHistory)
	}
}
