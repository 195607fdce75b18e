package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamgate/teamgate/internal/store"
	teamdomain "github.com/teamgate/teamgate/internal/team/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
)

type teamRequest struct {
	Name string `json:"name"`
}

func (s *Server) CreateTeam(c *gin.Context) {
	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.CreateTeam", err))
		return
	}

	team, err := s.store.CreateTeam(c.Request.Context(), store.CreateTeamRequest{Name: req.Name})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (s *Server) ListTeams(c *gin.Context) {
	teams, err := s.store.ListTeams(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (s *Server) GetTeam(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	team, err := s.store.GetTeam(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (s *Server) UpdateTeam(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req teamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.UpdateTeam", err))
		return
	}

	team, err := s.store.UpdateTeam(c.Request.Context(), id, store.UpdateTeamRequest{Name: req.Name})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (s *Server) DeleteTeam(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := s.store.DeleteTeam(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type billingUpdateRequest struct {
	CustomerID         *string `json:"customer_id"`
	SubscriptionID     *string `json:"subscription_id"`
	ProductID          *string `json:"product_id"`
	PlanName           *string `json:"plan_name"`
	SubscriptionStatus *string `json:"subscription_status"`
}

// UpdateTeamBilling is the billing collaborator's webhook target. The store
// rejects anything but the system principal.
func (s *Server) UpdateTeamBilling(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req billingUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.UpdateTeamBilling", err))
		return
	}

	err := s.store.UpdateTeamBilling(c.Request.Context(), id, teamdomain.BillingUpdate{
		CustomerID:         req.CustomerID,
		SubscriptionID:     req.SubscriptionID,
		ProductID:          req.ProductID,
		PlanName:           req.PlanName,
		SubscriptionStatus: req.SubscriptionStatus,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
