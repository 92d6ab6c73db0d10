package server

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/internal/authorization"
	reportdomain "github.com/smallbiznis/folio/internal/report/domain"
)

const dateOnlyLayout = "2006-01-02"

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

// parseOptionalTime accepts RFC3339 or a bare date; a bare date as an upper bound
// covers the whole day.
func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		} else {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}

type reportQueryParams struct {
	AuthorID    string `form:"author_id"`
	PublisherID string `form:"publisher_id"`
	From        string `form:"from"`
	To          string `form:"to"`
}

// reportQuery builds the report selector for the caller. Admins pick any selector;
// authors and publishers are pinned to their own id.
func (s *Server) reportQuery(c *gin.Context) (reportdomain.Query, error) {
	var params reportQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return reportdomain.Query{}, invalidRequestError()
	}

	from, err := parseOptionalTime(params.From, false)
	if err != nil {
		return reportdomain.Query{}, newValidationError("from", "invalid_from", "invalid from")
	}
	to, err := parseOptionalTime(params.To, true)
	if err != nil {
		return reportdomain.Query{}, newValidationError("to", "invalid_to", "invalid to")
	}

	authorID, err := parseOptionalSnowflakeID(params.AuthorID)
	if err != nil {
		return reportdomain.Query{}, newValidationError("author_id", "invalid_author_id", "invalid author_id")
	}
	publisherID, err := parseOptionalSnowflakeID(params.PublisherID)
	if err != nil {
		return reportdomain.Query{}, newValidationError("publisher_id", "invalid_publisher_id", "invalid publisher_id")
	}
	if authorID != nil && publisherID != nil {
		return reportdomain.Query{}, newValidationError("selector", "invalid_selector", "choose either author_id or publisher_id")
	}

	actor, all, err := s.scopeFor(c, authorization.ObjectReport, authorization.ActionReportViewAll, authorization.ActionReportViewOwn)
	if err != nil {
		return reportdomain.Query{}, err
	}

	q := reportdomain.Query{Range: reportdomain.DateRange{From: from, To: to}}
	if all {
		switch {
		case authorID != nil:
			q.Selector = reportdomain.Selector{Kind: reportdomain.SelectorAuthor, ID: *authorID}
		case publisherID != nil:
			q.Selector = reportdomain.Selector{Kind: reportdomain.SelectorPublisher, ID: *publisherID}
		default:
			q.Selector = reportdomain.Selector{Kind: reportdomain.SelectorGlobal}
		}
		return q, nil
	}

	ownID, err := parseOptionalSnowflakeID(actor.ID)
	if err != nil || ownID == nil {
		return reportdomain.Query{}, ErrForbidden
	}
	switch actor.Role {
	case authorization.RoleAuthor:
		if publisherID != nil || (authorID != nil && *authorID != *ownID) {
			return reportdomain.Query{}, ErrForbidden
		}
		q.Selector = reportdomain.Selector{Kind: reportdomain.SelectorAuthor, ID: *ownID}
	case authorization.RolePublisher:
		if authorID != nil || (publisherID != nil && *publisherID != *ownID) {
			return reportdomain.Query{}, ErrForbidden
		}
		q.Selector = reportdomain.Selector{Kind: reportdomain.SelectorPublisher, ID: *ownID}
	default:
		return reportdomain.Query{}, ErrForbidden
	}
	return q, nil
}
