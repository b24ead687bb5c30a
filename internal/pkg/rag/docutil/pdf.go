package docutil

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kart-io/sentinel-kb/internal/model"
	"github.com/kart-io/sentinel-kb/pkg/errors"
)

// PDFLoader PDF 文档加载器，逐页按行提取文本。
type PDFLoader struct {
	path   string
	reader *pdf.Reader
}

var _ Loader = (*PDFLoader)(nil)

// NewPDFLoader 创建 PDF 加载器。
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

// Load 读取整个文件到内存并解析。
func (l *PDFLoader) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.ErrInvalidDocument.WithCause(err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.ErrInvalidDocument.WithCause(err)
	}

	l.path = path
	l.reader = reader
	return nil
}

// PageCount 返回页数，未加载时为 0。
func (l *PDFLoader) PageCount() int {
	if l.reader == nil {
		return 0
	}
	return l.reader.NumPage()
}

// Extract 提取每一页的文本，页码从 1 开始。无法解析的页面保留为空页。
func (l *PDFLoader) Extract() (*model.Document, error) {
	if l.reader == nil {
		return nil, errors.ErrInvalidArgument.WithMessage("pdf loader: document not loaded")
	}

	count := l.reader.NumPage()
	doc := &model.Document{
		SourcePath: l.path,
		Type:       model.DocTypePDF,
		Pages:      make([]model.Page, 0, count),
	}
	for i := 1; i <= count; i++ {
		page := l.reader.Page(i)
		content := ""
		if !page.V.IsNull() {
			content = pageText(page)
		}
		doc.Pages = append(doc.Pages, model.Page{PageNum: i, PageContent: content})
	}
	return doc, nil
}

// Unload 释放解析结果。
func (l *PDFLoader) Unload() {
	l.reader = nil
	l.path = ""
}

// pageText 按基线 Y 坐标把字形归并为行，行自上而下排列，行内按 X 排序。
// 无法解析页面内容时退回纯文本提取。
func pageText(page pdf.Page) string {
	glyphs, err := pageGlyphs(page)
	if err == nil && len(glyphs) > 0 {
		return joinRows(glyphs)
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}

// pageGlyphs 解析内容流，库在遇到损坏的内容流时会 panic。
func pageGlyphs(page pdf.Page) (glyphs []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			glyphs, err = nil, fmt.Errorf("parse page content: %v", r)
		}
	}()
	for _, t := range page.Content().Text {
		if t.S == "\n" {
			continue
		}
		glyphs = append(glyphs, t)
	}
	return glyphs, nil
}

type textRow struct {
	y      float64
	glyphs []pdf.Text
}

func joinRows(glyphs []pdf.Text) string {
	var rows []*textRow
	index := make(map[float64]*textRow)
	for _, g := range glyphs {
		y := math.Round(g.Y)
		row, ok := index[y]
		if !ok {
			row = &textRow{y: y}
			index[y] = row
			rows = append(rows, row)
		}
		row.glyphs = append(row.glyphs, g)
	}

	// PDF 坐标系 Y 轴向上
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		sort.SliceStable(row.glyphs, func(i, j int) bool { return row.glyphs[i].X < row.glyphs[j].X })
		var b strings.Builder
		for _, g := range row.glyphs {
			b.WriteString(g.S)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
