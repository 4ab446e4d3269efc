package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/reclaimlabs/recoveryhub/internal/auth/domain"
	roledomain "github.com/reclaimlabs/recoveryhub/internal/role/domain"
)

type UpdateCredentialsRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type AssignRoleRequest struct {
	Role string `json:"role"`
}

type listUsersQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (s *Server) ListUsers(c *gin.Context) {
	var query listUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	var users []authdomain.User
	if err := s.db.WithContext(c.Request.Context()).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userView(&users[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) GetUserByID(c *gin.Context) {
	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	user, err := s.authsvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	roles, err := s.roleSvc.RolesForUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view := userView(user)
	view["roles"] = roles
	c.JSON(http.StatusOK, view)
}

func (s *Server) DeleteUser(c *gin.Context) {
	actorID, _ := currentUserID(c)

	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Pre-flight; the delete path runs the same guard again.
	if err := s.roleSvc.EnsureUserDeletable(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.authsvc.DeleteUser(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		actor := actorID.String()
		target := userID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), "user", &actor, "user.deleted", "user", &target, nil)
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) GetUserAuthDetails(c *gin.Context) {
	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	details, err := s.authsvc.GetAuthDetails(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (s *Server) UpdateUserCredentials(c *gin.Context) {
	actorID, _ := currentUserID(c)

	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdateCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	user, err := s.authsvc.UpdateCredentials(c.Request.Context(), authdomain.UpdateCredentialsRequest{
		UserID:      userID,
		Email:       strings.TrimSpace(req.Email),
		NewPassword: req.NewPassword,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		actor := actorID.String()
		target := userID.String()
		_ = s.auditSvc.AuditLog(c.Request.Context(), "user", &actor, "user.credentials_updated", "user", &target, map[string]any{
			"email_changed":    strings.TrimSpace(req.Email) != "",
			"password_changed": req.NewPassword != "",
		})
	}

	c.JSON(http.StatusOK, userView(user))
}

func (s *Server) ListUserRoles(c *gin.Context) {
	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	roles, err := s.roleSvc.RolesForUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": roles})
}

func (s *Server) AssignUserRole(c *gin.Context) {
	actorID, _ := currentUserID(c)

	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	role := roledomain.Role(strings.TrimSpace(req.Role))
	if err := s.roleSvc.Assign(c.Request.Context(), userID, role, &actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RemoveUserRole(c *gin.Context) {
	userID, err := parseSnowflakeParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	role := roledomain.Role(strings.TrimSpace(c.Param("role")))

	// Pre-flight; Remove runs the same guard again.
	if role == roledomain.RoleAdmin {
		if err := s.roleSvc.EnsureUserDeletable(c.Request.Context(), userID); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	if err := s.roleSvc.Remove(c.Request.Context(), userID, role); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
