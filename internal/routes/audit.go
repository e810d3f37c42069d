package routes

import (
	"github.com/labstack/echo/v4"

	"asset-system/internal/controllers"
)

func runAuditRouter(secureGroup *echo.Group, auditCtrl *controllers.AuditController) {
	{
		secureGroup.GET("/audits", auditCtrl.GetAudits)
		secureGroup.POST("/audits", auditCtrl.SubmitAudit)
		secureGroup.GET("/audits/:id", auditCtrl.FindAudit)
		secureGroup.GET("/audits/:id/report.xlsx", auditCtrl.ExportAudit)
	}
}
