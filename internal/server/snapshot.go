package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	snapshotdomain "github.com/smallbiznis/settletrace/internal/snapshot/domain"
)

func (s *Server) ArchiveSnapshot(c *gin.Context) {
	record, err := s.snapSvc.Archive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"snapshot_id": record.ID.String(),
		"taken_at":    record.TakenAt,
	}})
}

func (s *Server) ExportSnapshot(c *gin.Context) {
	raw, err := s.snapSvc.Serialize(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json", raw)
}

func (s *Server) ImportSnapshot(c *gin.Context) {
	var doc snapshotdomain.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.snapSvc.Restore(c.Request.Context(), doc); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"restored": true}})
}

func (s *Server) RestoreLatestSnapshot(c *gin.Context) {
	if err := s.snapSvc.RestoreLatest(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"restored": true}})
}
