package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	saledomain "github.com/smallbiznis/folio/internal/sale/domain"
)

type recordOrderRequest struct {
	Lines []saledomain.OrderLine `json:"lines"`
}

func (s *Server) RecordSale(c *gin.Context) {
	var req saledomain.RecordSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id, err := s.saleSvc.RecordSale(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	sale, err := s.saleSvc.Get(c.Request.Context(), id.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": sale})
}

func (s *Server) RecordOrder(c *gin.Context) {
	var req recordOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	orderID := strings.TrimSpace(c.Param("id"))
	ids, err := s.saleSvc.RecordOrder(c.Request.Context(), saledomain.RecordOrderRequest{
		OrderID: orderID,
		Lines:   req.Lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	saleIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		saleIDs = append(saleIDs, id.String())
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"order_id": orderID, "sale_ids": saleIDs}})
}

func (s *Server) GetSale(c *gin.Context) {
	sale, err := s.saleSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sale})
}

func (s *Server) ListOrderSales(c *gin.Context) {
	sales, err := s.saleSvc.ListByOrder(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sales})
}
