package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/teamgate/teamgate/internal/store"
	"github.com/teamgate/teamgate/pkg/apperr"
)

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (s *Server) AddTeamMember(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.AddTeamMember", err))
		return
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.AddTeamMember", err))
		return
	}

	member, err := s.store.AddMember(c.Request.Context(), store.AddMemberRequest{
		TeamID: teamID,
		UserID: userID,
		Role:   req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (s *Server) ListTeamMembers(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	members, err := s.store.ListMembers(c.Request.Context(), teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) ChangeTeamMemberRole(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.ChangeTeamMemberRole", err))
		return
	}

	if err := s.store.ChangeMemberRole(c.Request.Context(), teamID, userID, req.Role); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) RemoveTeamMember(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}

	if err := s.store.RemoveMember(c.Request.Context(), teamID, userID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
