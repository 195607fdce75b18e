package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	activitydomain "github.com/teamgate/teamgate/internal/activity/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
	"github.com/teamgate/teamgate/pkg/db/pagination"
)

// ListActivity exposes the team audit trail with keyset pagination.
func (s *Server) ListActivity(c *gin.Context) {
	teamID, ok := parseID(c, "id")
	if !ok {
		return
	}

	req := activitydomain.ListRequest{
		Pagination: pagination.Pagination{
			PageToken: c.Query("page_token"),
		},
		TeamID: teamID,
		Action: strings.TrimSpace(c.Query("action")),
	}

	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || size < 0 {
			AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.ListActivity", err))
			return
		}
		req.PageSize = int32(size)
	}
	if raw := c.Query("user_id"); raw != "" {
		userID, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.ListActivity", err))
			return
		}
		req.UserID = &userID
	}
	if raw := c.Query("start_at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.ListActivity", err))
			return
		}
		req.StartAt = &at
	}
	if raw := c.Query("end_at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, apperr.E(apperr.ErrInvalid, "server.ListActivity", err))
			return
		}
		req.EndAt = &at
	}

	resp, err := s.store.ListActivity(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
