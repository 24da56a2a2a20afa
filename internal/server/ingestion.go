package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	ingestiondomain "github.com/smallbiznis/settletrace/internal/ingestion/domain"
)

type createOrderRequest struct {
	EnterpriseID string `json:"enterprise_id"`
	Amount       int64  `json:"amount"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ingestSvc.CreateOrder(c.Request.Context(), ingestiondomain.CreateOrderRequest{
		EnterpriseID: strings.TrimSpace(req.EnterpriseID),
		Amount:       req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.ingestSvc.DeleteOrder(c.Request.Context(), ingestiondomain.DeleteOrderRequest{
		ID: id,
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": id}})
}

type createPaymentRequest struct {
	EnterpriseID string   `json:"enterprise_id"`
	OrderIDs     []string `json:"order_ids"`
}

func (s *Server) CreatePayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ingestSvc.CreatePayment(c.Request.Context(), ingestiondomain.CreatePaymentRequest{
		EnterpriseID: strings.TrimSpace(req.EnterpriseID),
		OrderIDs:     req.OrderIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createEnterpriseTotalRequest struct {
	EnterpriseID string   `json:"enterprise_id"`
	PaymentIDs   []string `json:"payment_ids"`
}

func (s *Server) CreateEnterpriseTotal(c *gin.Context) {
	var req createEnterpriseTotalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ingestSvc.CreateEnterpriseTotal(c.Request.Context(), ingestiondomain.CreateEnterpriseTotalRequest{
		EnterpriseID: strings.TrimSpace(req.EnterpriseID),
		PaymentIDs:   req.PaymentIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createTotalAmountRequest struct {
	EnterpriseTotalIDs []string `json:"enterprise_total_ids"`
}

func (s *Server) CreateTotalAmount(c *gin.Context) {
	var req createTotalAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.ingestSvc.CreateTotalAmount(c.Request.Context(), ingestiondomain.CreateTotalAmountRequest{
		EnterpriseTotalIDs: req.EnterpriseTotalIDs,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type reassignPaymentRequest struct {
	EnterpriseTotalID string `json:"enterprise_total_id"`
}

func (s *Server) ReassignPayment(c *gin.Context) {
	var req reassignPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	paymentID := strings.TrimSpace(c.Param("id"))
	if err := s.ingestSvc.ReassignPayment(c.Request.Context(), ingestiondomain.ReassignPaymentRequest{
		PaymentID:         paymentID,
		EnterpriseTotalID: strings.TrimSpace(req.EnterpriseTotalID),
	}); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"payment_id": paymentID, "enterprise_total_id": req.EnterpriseTotalID}})
}
