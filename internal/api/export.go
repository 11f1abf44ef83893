package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/richmontato/eznews2/internal/pkg/export"
	"github.com/richmontato/eznews2/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// handleExportArticle 把文章导出为 PDF 或 TXT 附件。
//
// include_summary=true 时从 summary 查询参数读取 JSON 格式的
// 分面摘要，附在文档末尾的 "Ringkasan AI" 区块里。
func (s *Server) handleExportArticle(c *gin.Context) {
	article, ok := s.loadArticle(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "pdf")
	if format != "pdf" && format != "txt" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be pdf or txt"})
		return
	}

	var summaryData map[string]string
	if includeRaw := c.Query("include_summary"); includeRaw != "" {
		include, err := strconv.ParseBool(includeRaw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid include_summary"})
			return
		}
		if include {
			raw := c.Query("summary")
			if raw == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "summary is required when include_summary is true"})
				return
			}
			if err := json.Unmarshal([]byte(raw), &summaryData); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "summary must be a JSON object"})
				return
			}
		}
	}

	filename := export.Filename(article.Title)

	switch format {
	case "pdf":
		data, err := export.GeneratePDF(article, summaryData)
		if err != nil {
			s.logger.Error("pdf generation failed", slog.Uint64("article_id", uint64(article.ID)), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "generate pdf failed"})
			return
		}
		metrics.ExportsTotal.WithLabelValues("pdf").Inc()
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
		c.Data(http.StatusOK, "application/pdf", data)
	case "txt":
		data := export.GenerateTXT(article, summaryData)
		metrics.ExportsTotal.WithLabelValues("txt").Inc()
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".txt"))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
	}
}
