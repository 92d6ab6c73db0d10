package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/internal/authorization"
	payoutdomain "github.com/smallbiznis/folio/internal/payout/domain"
	"github.com/smallbiznis/folio/pkg/db/pagination"
)

type listPayoutsQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
	Status    string `form:"status"`
	Role      string `form:"role"`
	UserID    string `form:"user_id"`
}

func (s *Server) RequestPayout(c *gin.Context) {
	var req payoutdomain.CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if actor.Role != authorization.RoleAdmin {
		if !ownsRecipient(actor, req.Role, req.UserID) {
			AbortWithError(c, ErrForbidden)
			return
		}
		req.Role = actor.Role
		req.UserID = actor.ID
	}

	payout, err := s.payoutSvc.Request(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": payout})
}

func (s *Server) ListPayouts(c *gin.Context) {
	var query listPayoutsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, all, err := s.scopeFor(c, authorization.ObjectPayout, authorization.ActionPayoutViewAll, authorization.ActionPayoutViewOwn)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !all {
		if !ownsRecipient(actor, query.Role, query.UserID) {
			AbortWithError(c, ErrForbidden)
			return
		}
		query.Role = actor.Role
		query.UserID = actor.ID
	}

	resp, err := s.payoutSvc.List(c.Request.Context(), payoutdomain.ListPayoutRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status: strings.TrimSpace(query.Status),
		Role:   strings.TrimSpace(query.Role),
		UserID: strings.TrimSpace(query.UserID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payouts, "page_info": resp.PageInfo})
}

func (s *Server) PayoutBalance(c *gin.Context) {
	role := strings.TrimSpace(c.Query("role"))
	userID := strings.TrimSpace(c.Query("user_id"))

	actor, all, err := s.scopeFor(c, authorization.ObjectPayout, authorization.ActionPayoutViewAll, authorization.ActionPayoutViewOwn)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !all {
		if !ownsRecipient(actor, role, userID) {
			AbortWithError(c, ErrForbidden)
			return
		}
		role, userID = actor.Role, actor.ID
	}

	balance, err := s.payoutSvc.Balance(c.Request.Context(), role, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": balance})
}

func (s *Server) GetPayout(c *gin.Context) {
	actor, all, err := s.scopeFor(c, authorization.ObjectPayout, authorization.ActionPayoutViewAll, authorization.ActionPayoutViewOwn)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	payout, err := s.payoutSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !all && (string(payout.Role) != actor.Role || payout.UserID.String() != actor.ID) {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payout})
}

func (s *Server) ApprovePayout(c *gin.Context) {
	s.processPayout(c, s.payoutSvc.Approve)
}

func (s *Server) RejectPayout(c *gin.Context) {
	s.processPayout(c, s.payoutSvc.Reject)
}

func (s *Server) MarkPayoutPaid(c *gin.Context) {
	s.processPayout(c, s.payoutSvc.MarkPaid)
}

type payoutTransition func(ctx context.Context, id string, req payoutdomain.ProcessPayoutRequest) (payoutdomain.PayoutRequest, error)

func (s *Server) processPayout(c *gin.Context, apply payoutTransition) {
	var req payoutdomain.ProcessPayoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	payout, err := apply(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payout})
}

// ownsRecipient reports whether the optional role and id filters supplied by an
// author or publisher point at themselves.
func ownsRecipient(actor Actor, role, userID string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	userID = strings.TrimSpace(userID)
	if actor.ID == "" {
		return false
	}
	if role != "" && role != actor.Role {
		return false
	}
	if userID != "" && userID != actor.ID {
		return false
	}
	return actor.Role == authorization.RoleAuthor || actor.Role == authorization.RolePublisher
}
