package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/teamgate/teamgate/internal/store"
	"github.com/teamgate/teamgate/pkg/apperr"
)

type createInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) CreateInvitation(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.CreateInvitation", err))
		return
	}

	invitation, err := s.store.CreateInvitation(c.Request.Context(), store.CreateInvitationRequest{
		TeamID: teamID,
		Email:  req.Email,
		Role:   req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

func (s *Server) ListInvitations(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	invitations, err := s.store.ListInvitations(c.Request.Context(), teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

func (s *Server) RevokeInvitation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.store.RevokeInvitation(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type redeemInvitationRequest struct {
	UserID string `json:"user_id"`
}

// RedeemInvitation is called by the acceptance collaborator under the system
// principal once the invitee has authenticated.
func (s *Server) RedeemInvitation(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req redeemInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.RedeemInvitation", err))
		return
	}
	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.RedeemInvitation", err))
		return
	}

	member, err := s.store.RedeemInvitation(c.Request.Context(), id, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}
