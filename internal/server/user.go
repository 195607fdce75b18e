package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamgate/teamgate/internal/store"
	"github.com/teamgate/teamgate/pkg/apperr"
	"github.com/teamgate/teamgate/pkg/principal"
)

type createUserRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}

// CreateUser provisions an account. Only the system principal passes the
// write policy, so this endpoint is effectively internal.
func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.CreateUser", err))
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), store.CreateUserRequest{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: req.PasswordHash,
		Role:         req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) GetMe(c *gin.Context) {
	p, ok := principal.FromContext(c.Request.Context())
	if !ok || p.IsSystem() {
		AbortWithError(c, apperr.E(apperr.ErrForbidden, "server.GetMe", nil))
		return
	}

	user, err := s.store.GetUser(c.Request.Context(), p.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type updateMeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) UpdateMe(c *gin.Context) {
	p, ok := principal.FromContext(c.Request.Context())
	if !ok || p.IsSystem() {
		AbortWithError(c, apperr.E(apperr.ErrForbidden, "server.UpdateMe", nil))
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.UpdateMe", err))
		return
	}

	user, err := s.store.UpdateUser(c.Request.Context(), p.UserID, store.UpdateUserRequest{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) DeleteMe(c *gin.Context) {
	p, ok := principal.FromContext(c.Request.Context())
	if !ok || p.IsSystem() {
		AbortWithError(c, apperr.E(apperr.ErrForbidden, "server.DeleteMe", nil))
		return
	}

	if err := s.store.SoftDeleteUser(c.Request.Context(), p.UserID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
