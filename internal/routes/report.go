package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
)

func runReportRouter(secureGroup *echo.Group, reportCtrl *controllers.ReportController) {
	{
		secureGroup.GET("/reports/loans", reportCtrl.ActiveLoans)
		secureGroup.GET("/reports/overdue", reportCtrl.Overdue)
		secureGroup.GET("/reports/holders", reportCtrl.Holders)
	}
}
