package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) TracePayment(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.tracer.TraceForward(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordTrace(c.Request.Context(), "forward")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TraceEnterpriseTotal(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.tracer.TraceEnterprise(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordTrace(c.Request.Context(), "enterprise")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TraceTotalAmount(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.tracer.TraceBackward(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.metrics.RecordTrace(c.Request.Context(), "backward")
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
