package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// HTTPRequestsTotal 按方法和状态码统计 HTTP 请求数。
	HTTPRequestsTotal *prometheus.CounterVec

	// SummaryDegradedTotal 摘要服务降级（占位符兜底）次数。
	SummaryDegradedTotal prometheus.Counter

	// ExportsTotal 按格式统计文章导出次数。
	ExportsTotal *prometheus.CounterVec

	// AdminActionsTotal 按动作类型统计管理员写操作。
	AdminActionsTotal *prometheus.CounterVec
)

// InitMetrics 注册 Prometheus 指标。可重复调用，只注册一次。
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eznews_http_requests_total",
			Help: "Total HTTP requests handled, by method and status code.",
		}, []string{"method", "status"})

		SummaryDegradedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eznews_summary_degraded_total",
			Help: "Summarization responses that fell back to placeholders.",
		})

		ExportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eznews_article_exports_total",
			Help: "Article exports generated, by format.",
		}, []string{"format"})

		AdminActionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eznews_admin_actions_total",
			Help: "Admin article mutations, by action type.",
		}, []string{"action"})

		prometheus.MustRegister(
			HTTPRequestsTotal,
			SummaryDegradedTotal,
			ExportsTotal,
			AdminActionsTotal,
		)
	})
}
