package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	entitydomain "github.com/smallbiznis/settletrace/internal/entity/domain"
)

type auditRequest struct {
	PaymentIDs []string `json:"payment_ids"`
}

// AuditIncomplete classifies the given payment set by rollup completeness.
// An empty or absent set means every known payment.
func (s *Server) AuditIncomplete(c *gin.Context) {
	var req auditRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	ids := req.PaymentIDs
	if len(ids) == 0 {
		ids = s.store.IDs(entitydomain.KindPayment)
	}
	report := s.auditor.IncompletePayments(ids)

	s.metrics.RecordAudit(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) AuditStats(c *gin.Context) {
	var req auditRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	ids := req.PaymentIDs
	if len(ids) == 0 {
		ids = s.store.IDs(entitydomain.KindPayment)
	}
	stats := s.auditor.CompletenessStats(ids)

	s.metrics.RecordAudit(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) AuditSummary(c *gin.Context) {
	summary := s.auditor.CompletenessSummary()

	s.metrics.RecordAudit(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": summary})
}
