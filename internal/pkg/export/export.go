package export

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/richmontato/eznews2/internal/model"
	"github.com/richmontato/eznews2/internal/pkg/summary"

	"github.com/jung-kurt/gofpdf"
)

// 导出文档里的元信息标签（部署目标语言为印尼语）。
const (
	labelAuthor   = "Penulis"
	labelDate     = "Tanggal"
	labelCategory = "Kategori"
	labelSource   = "Sumber"
	summaryTitle  = "Ringkasan AI"

	dateLayout = "02 January 2006"
)

// GeneratePDF 将文章渲染为 PDF。
//
// summaryData 不为 nil 时追加摘要段落：按固定维度顺序输出非空项，
// 标签大写。空值维度直接跳过。
//
// 参数:
//
//	article: 已加载 Category 的文章
//	summaryData: 维度到文本的映射（nil 表示不含摘要）
//
// 返回值:
//
//	[]byte: PDF 内容
//	error: 渲染失败返回错误
func GeneratePDF(article *model.Article, summaryData map[string]string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(25, 25, 25)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// 标题（居中）
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(46, 59, 125)
	pdf.MultiCell(0, 9, tr(article.Title), "", "C", false)
	pdf.Ln(4)

	// 元信息
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(128, 128, 128)
	meta := []string{
		fmt.Sprintf("%s: %s", labelAuthor, article.AuthorName),
		fmt.Sprintf("%s: %s", labelDate, article.PublishedDate.Format(dateLayout)),
		fmt.Sprintf("%s: %s", labelCategory, article.Category.Name),
	}
	if article.SourceURL != "" {
		meta = append(meta, fmt.Sprintf("%s: %s", labelSource, article.SourceURL))
	}
	for _, line := range meta {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(8)

	// 正文（按换行拆段，跳过空行）
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(31, 41, 55)
	for _, para := range strings.Split(article.Content, "\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		pdf.MultiCell(0, 6, tr(para), "", "L", false)
		pdf.Ln(4)
	}

	if summaryData != nil {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.SetTextColor(46, 59, 125)
		pdf.MultiCell(0, 7, tr(summaryTitle), "", "L", false)
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 11)
		pdf.SetTextColor(31, 41, 55)
		for _, facet := range summary.Facets {
			value := summaryData[facet]
			if value == "" {
				continue
			}
			pdf.MultiCell(0, 6, tr(fmt.Sprintf("%s: %s", strings.ToUpper(facet), value)), "", "L", false)
			pdf.Ln(2)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateTXT 将文章渲染为纯文本字节序列（UTF-8）。
//
// 逻辑内容与 PDF 一致：标题、下划线、元信息、分隔线、正文、
// 可选摘要段。
func GenerateTXT(article *model.Article, summaryData map[string]string) []byte {
	var b strings.Builder

	b.WriteString(article.Title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", utf8.RuneCountInString(article.Title)))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s: %s\n", labelAuthor, article.AuthorName)
	fmt.Fprintf(&b, "%s: %s\n", labelDate, article.PublishedDate.Format(dateLayout))
	fmt.Fprintf(&b, "%s: %s\n", labelCategory, article.Category.Name)
	if article.SourceURL != "" {
		fmt.Fprintf(&b, "%s: %s\n", labelSource, article.SourceURL)
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 80))
	b.WriteString("\n\n")
	b.WriteString(article.Content)

	if summaryData != nil {
		b.WriteString("\n\n")
		b.WriteString(strings.Repeat("-", 80))
		b.WriteString("\n")
		b.WriteString(strings.ToUpper(summaryTitle))
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", 80))
		b.WriteString("\n\n")

		for _, facet := range summary.Facets {
			value := summaryData[facet]
			if value == "" {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n\n", strings.ToUpper(facet), value)
		}
	}

	return []byte(b.String())
}

// Filename 根据文章标题生成下载文件名（不含扩展名，最长 50 个字符）。
// 按 rune 截断，多字节标题不会被切在字符中间。
func Filename(title string) string {
	stem := strings.TrimSpace(title)
	if runes := []rune(stem); len(runes) > 50 {
		stem = string(runes[:50])
	}
	if stem == "" {
		stem = "article"
	}
	return stem
}
