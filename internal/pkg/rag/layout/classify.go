package layout

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LineType 行分类结果。
type LineType int

const (
	// LineBlank 空行。
	LineBlank LineType = iota
	// LineNormal 普通正文行。
	LineNormal
	// LineHeading 标题行。
	LineHeading
	// LinePageNumber 页码行。
	LinePageNumber
	// LineBreak 段落结束行。
	LineBreak
	// LineTable 表格单元行。
	LineTable
)

// String 返回行类型名称。
func (t LineType) String() string {
	switch t {
	case LineBlank:
		return "blank"
	case LineNormal:
		return "normal"
	case LineHeading:
		return "heading"
	case LinePageNumber:
		return "page-number"
	case LineBreak:
		return "break"
	case LineTable:
		return "table"
	default:
		return "unknown"
	}
}

// 短于该字符数且不以句号结尾的段落结束行按表格单元处理。
const minParagraphRunes = 10

const cnNumerals = "一二三四五六七八九十百零〇两"

type headingPattern struct {
	re    *regexp.Regexp
	level int
}

// 按从具体到宽泛排序，先匹配的生效。
var headingPatterns = []headingPattern{
	{regexp.MustCompile(`^\d+\.\d+\.\d+\.?(\s+|\p{Han})`), 3},
	{regexp.MustCompile(`^[（(]\d+[)）]`), 3},
	{regexp.MustCompile(`^第[0-9` + cnNumerals + `]+节`), 2},
	{regexp.MustCompile(`^\d+\.\d+\.?(\s+|\p{Han})`), 2},
	{regexp.MustCompile(`^[（(][` + cnNumerals + `]+[)）]`), 2},
	{regexp.MustCompile(`^第[0-9` + cnNumerals + `]+[章篇部]`), 1},
	{regexp.MustCompile(`^(?i:chapter)\s+(\d+|[IVXLCivxlc]+)\b`), 1},
	{regexp.MustCompile(`^[IVXLC]+[.、]\s*\S`), 1},
	{regexp.MustCompile(`^[` + cnNumerals + `]+、\s*\S`), 1},
	{regexp.MustCompile(`^\d+[.、]\s*[^\d\s.]`), 1},
}

var terminators = map[rune]struct{}{
	'.': {}, '!': {}, '?': {}, '。': {}, '！': {}, '？': {}, ';': {}, '；': {},
}

var ellipses = []string{"...", "…", "···"}

// Classify 对单行文本分类，prevBlank 表示上一行是否为空行。
// 返回的层级仅对标题行有意义，其余类型为 0。
func Classify(line string, prevBlank bool) (LineType, int) {
	line = strings.TrimRight(line, "\r\n")
	text := strings.TrimSpace(line)
	if text == "" {
		return LineBlank, 0
	}

	if level := headingLevel(text); level > 0 {
		// 含全角逗号的多为目录或正文，不作为标题
		if strings.ContainsRune(text, '，') {
			return LineNormal, 0
		}
		return LineHeading, level
	}

	if prevBlank && isDigits(text) {
		return LinePageNumber, 0
	}

	if isBreak(line, text) {
		if utf8.RuneCountInString(text) < minParagraphRunes && !endsWithPeriod(text) {
			return LineTable, 0
		}
		return LineBreak, 0
	}

	return LineNormal, 0
}

func headingLevel(text string) int {
	compact := strings.ReplaceAll(text, " ", "")
	if strings.EqualFold(compact, "abstract") || compact == "摘要" {
		return 1
	}
	for _, p := range headingPatterns {
		if p.re.MatchString(text) {
			return p.level
		}
	}
	return 0
}

func isBreak(raw, text string) bool {
	if strings.HasSuffix(raw, " ") {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	if _, ok := terminators[last]; ok {
		return true
	}
	for _, e := range ellipses {
		if strings.Contains(text, e) {
			return true
		}
	}
	return false
}

func endsWithPeriod(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "。")
}

func isDigits(text string) bool {
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isASCIIAlnum(r rune) bool {
	return r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
