package handler

import (
	"net/http"

	"roleconsole/internal/middleware"
	"roleconsole/internal/permission"
	"roleconsole/internal/service"
	"roleconsole/pkg/pagination"
	"roleconsole/pkg/response"

	"github.com/gin-gonic/gin"
)

const auditModule = "audit_logs"

type AuditHandler struct {
	auditService service.AuditService
	auth         *middleware.Authenticator
}

func NewAuditHandler(auditService service.AuditService, auth *middleware.Authenticator) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.auth.RequirePermission(auditModule, permission.ActionView))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs retrieves the role change history, newest first
// @Summary      Get audit logs
// @Description  Retrieves a page of role and permission changes
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, logs, p.Page, p.Limit, total))
}
