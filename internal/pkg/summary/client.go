package summary

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/richmontato/eznews2/internal/config"
	"github.com/richmontato/eznews2/internal/pkg/metrics"

	"github.com/go-resty/resty/v2"
)

// Facets 是固定的六个摘要维度，渲染时按此顺序输出。
var Facets = []string{"who", "when", "where", "what", "why", "how"}

// Placeholder 外部服务失败或字段缺失时的兜底文案。
const Placeholder = "Ringkasan tidak tersedia."

// 摘要长度档位。
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// ValidFacet 判断名称是否是合法的摘要维度。
func ValidFacet(name string) bool {
	for _, f := range Facets {
		if f == name {
			return true
		}
	}
	return false
}

// ValidLength 判断长度档位是否合法。
func ValidLength(v string) bool {
	return v == LengthShort || v == LengthMedium || v == LengthLong
}

// Client 封装对外部文本生成服务的调用。
//
// 外部服务接收文章正文和要求的维度列表，返回一个 JSON 对象，
// 键是维度名，值是目标语言的一句话回答。
type Client struct {
	http     *resty.Client
	endpoint string
	language string
	logger   *slog.Logger
}

// NewClient 创建摘要服务客户端。
func NewClient(cfg *config.SummaryConfig, logger *slog.Logger) *Client {
	httpClient := resty.New().SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}
	return &Client{
		http:     httpClient,
		endpoint: cfg.Endpoint,
		language: cfg.Language,
		logger:   logger,
	}
}

type generateRequest struct {
	Content  string   `json:"content"`
	Facets   []string `json:"facets"`
	Length   string   `json:"length"`
	Language string   `json:"language"`
}

// Summarize 请求外部服务生成摘要。
//
// 返回的映射恰好包含请求的维度：服务返回的多余键被丢弃，
// 缺失或无法解析的键用占位符补齐。服务整体失败（不可达、超时、
// 非 200、响应不是 JSON 对象）时所有维度都填占位符。
// 该方法从不返回错误，降级情况通过第二个返回值表示。
func (c *Client) Summarize(ctx context.Context, content string, facets []string, length string) (map[string]string, bool) {
	result := make(map[string]string, len(facets))

	raw, err := c.call(ctx, content, facets, length)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("summary service failed", slog.String("error", err.Error()))
		}
		for _, f := range facets {
			result[f] = Placeholder
		}
		if metrics.SummaryDegradedTotal != nil {
			metrics.SummaryDegradedTotal.Inc()
		}
		return result, true
	}

	degraded := false
	for _, f := range facets {
		value, ok := raw[f]
		var text string
		if ok {
			_ = json.Unmarshal(value, &text)
		}
		if text == "" {
			text = Placeholder
			degraded = true
		}
		result[f] = text
	}

	if degraded && metrics.SummaryDegradedTotal != nil {
		metrics.SummaryDegradedTotal.Inc()
	}
	return result, degraded
}

func (c *Client) call(ctx context.Context, content string, facets []string, length string) (map[string]json.RawMessage, error) {
	if c.endpoint == "" {
		return nil, errEndpointNotConfigured
	}

	var raw map[string]json.RawMessage
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(generateRequest{
			Content:  content,
			Facets:   facets,
			Length:   length,
			Language: c.language,
		}).
		SetResult(&raw).
		Post(c.endpoint)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, &statusError{code: resp.StatusCode()}
	}
	if raw == nil {
		return nil, errEmptyReply
	}
	return raw, nil
}
