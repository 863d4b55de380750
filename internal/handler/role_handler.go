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

// rolesModule is the catalog module guarding the role console itself
const rolesModule = "roles"

type RoleHandler struct {
	roleService service.RoleService
	auth        *middleware.Authenticator
}

func NewRoleHandler(roleService service.RoleService, auth *middleware.Authenticator) *RoleHandler {
	return &RoleHandler{roleService: roleService, auth: auth}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/catalog", h.auth.RequirePermission(rolesModule, permission.ActionView), h.ListCatalog)

	roles := router.Group("/api/roles")
	{
		roles.GET("", h.auth.RequirePermission(rolesModule, permission.ActionView), h.ListRoles)
		roles.GET("/:id", h.auth.RequirePermission(rolesModule, permission.ActionView), h.GetRole)
		roles.POST("", h.auth.RequirePermission(rolesModule, permission.ActionAdd), h.CreateRole)
		roles.PUT("/:id", h.auth.RequirePermission(rolesModule, permission.ActionEdit), h.UpdateRole)
		roles.PATCH("/:id/modules/:module_id", h.auth.RequirePermission(rolesModule, permission.ActionEdit), h.TogglePermission)
		roles.DELETE("/:id", h.auth.RequirePermission(rolesModule, permission.ActionDelete), h.DeleteRole)
	}
}

// ListCatalog returns categories with their modules
// @Summary      List module catalog
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        only_active  query     bool  false  "Only active categories and modules (default true)"
// @Success      200          {object}  response.Response{data=[]model.Category}
// @Router       /api/catalog [get]
func (h *RoleHandler) ListCatalog(c *gin.Context) {
	onlyActive := c.DefaultQuery("only_active", "true") != "false"

	categories, err := h.roleService.ListCatalog(c.Request.Context(), onlyActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, categories))
}

// ListRoles returns one page of roles with their permission matrices
// @Summary      List roles
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]service.RoleResponse}
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	p := pagination.Parse(c)

	roles, total, err := h.roleService.ListRoles(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, roles, p.Page, p.Limit, total))
}

// GetRole returns a single role by ID
// @Summary      Get role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole creates a role and its permission rows
// @Summary      Create role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.CreateRoleRequest  true  "Role and matrix"
// @Success      201   {object}  response.Response{data=service.RoleResponse}
// @Failure      400   {object}  response.Response
// @Router       /api/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req, middleware.ActorID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole updates a role's metadata and permission matrix
// @Summary      Update role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "Role ID"
// @Param        body  body      service.UpdateRoleRequest  true  "Role and matrix"
// @Success      200   {object}  response.Response{data=service.RoleResponse}
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /api/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), c.Param("id"), req, middleware.ActorID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// TogglePermission flips one flag, or all flags with action "all", on one module
// @Summary      Toggle module permission
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id         path      string                           true  "Role ID"
// @Param        module_id  path      string                           true  "Module ID"
// @Param        body       body      service.TogglePermissionRequest  true  "Action"
// @Success      200        {object}  response.Response{data=service.RoleResponse}
// @Router       /api/roles/{id}/modules/{module_id} [patch]
func (h *RoleHandler) TogglePermission(c *gin.Context) {
	var req service.TogglePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	role, err := h.roleService.TogglePermission(c.Request.Context(), c.Param("id"), c.Param("module_id"), req.Action, middleware.ActorID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole soft-deletes a non-system role
// @Summary      Delete role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	if err := h.roleService.DeleteRole(c.Request.Context(), c.Param("id"), middleware.ActorID(c)); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role deleted successfully"}))
}
