package api

import (
	"net/http"
	"strings"

	"github.com/richmontato/eznews2/internal/model"
	"github.com/richmontato/eznews2/internal/pkg/summary"

	"github.com/gin-gonic/gin"
)

type summarizeRequest struct {
	ArticleID uint     `json:"article_id"`
	Content   string   `json:"content"`
	Filters   []string `json:"filters"`
	Length    string   `json:"length"`
}

// handleSummarize 调用外部摘要服务生成 5W1H 分面摘要。
//
// 后端不可用时不报错，缺失的分面用占位文案补齐并标记 degraded。
func (s *Server) handleSummarize(c *gin.Context) {
	var req summarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" && req.ArticleID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article_id or content is required"})
		return
	}
	if content == "" {
		var article model.Article
		if err := s.db.First(&article, req.ArticleID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return
		}
		content = article.Content
	}

	facets := req.Filters
	if len(facets) == 0 {
		facets = summary.Facets
	}
	for _, f := range facets {
		if !summary.ValidFacet(f) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter: " + f})
			return
		}
	}

	length := req.Length
	if length == "" {
		length = summary.LengthMedium
	}
	if !summary.ValidLength(length) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "length must be short, medium or long"})
		return
	}

	result, degraded := s.summarizer.Summarize(c.Request.Context(), content, facets, length)
	c.JSON(http.StatusOK, gin.H{
		"summary":  result,
		"degraded": degraded,
	})
}
