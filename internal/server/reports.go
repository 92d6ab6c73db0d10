package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

func (s *Server) ListReportSales(c *gin.Context) {
	q, err := s.reportQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sales, err := s.reportSvc.ListSales(c.Request.Context(), q)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sales})
}

func (s *Server) MonthlyReport(c *gin.Context) {
	q, err := s.reportQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	buckets, err := s.reportSvc.Monthly(c.Request.Context(), q)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": buckets})
}

func (s *Server) Dashboard(c *gin.Context) {
	q, err := s.reportQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.reportSvc.Dashboard(c.Request.Context(), q)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) ExportCSV(c *gin.Context) {
	q, err := s.reportQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.reportSvc.ExportCSV(c.Request.Context(), q, &buf); err != nil {
		AbortWithError(c, err)
		return
	}
	writeAttachment(c, s.reportSvc.ExportFileName(q, "csv"), contentTypeCSV, buf.Bytes())
}

func (s *Server) ExportXLSX(c *gin.Context) {
	q, err := s.reportQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.reportSvc.ExportXLSX(c.Request.Context(), q, &buf); err != nil {
		AbortWithError(c, err)
		return
	}
	writeAttachment(c, s.reportSvc.ExportFileName(q, "xlsx"), contentTypeXLSX, buf.Bytes())
}

func (s *Server) StatementPDF(c *gin.Context) {
	q, err := s.reportQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.reportSvc.StatementPDF(c.Request.Context(), q)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeAttachment(c, s.reportSvc.ExportFileName(q, "pdf"), contentTypePDF, doc)
}

func writeAttachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, body)
}
