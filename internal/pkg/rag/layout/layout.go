package layout

import (
	"strings"
	"unicode/utf8"
)

// lineState 单页处理过程中的行状态，生命周期限于一次调用。
type lineState struct {
	// lastChar 已输出内容的最后一个字符。
	lastChar rune
	// lineType 上一行的分类。
	lineType LineType
	// lineStart 本页尚未输出任何内容。
	lineStart bool
	// trimFlag 表格块尚未闭合，下一个非表格单元前需补换行。
	trimFlag bool
	// level 当前标题层级，每输出一个标题后回到 1。
	level int
}

type unit struct {
	typ  LineType
	text string
}

type reconstructor struct {
	state lineState
	units []unit
}

// Reconstruct 重建一页原始文本。
func Reconstruct(page string) string {
	return ReconstructLines(strings.Split(page, "\n"))
}

// ReconstructLines 按行重建一页文本，输出单元按输入顺序拼接。
func ReconstructLines(lines []string) string {
	r := &reconstructor{
		state: lineState{lineStart: true, level: 1, lineType: LineNormal},
	}
	for _, line := range lines {
		r.feed(line)
	}

	var b strings.Builder
	for _, u := range r.units {
		b.WriteString(u.text)
	}
	return b.String()
}

func (r *reconstructor) feed(raw string) {
	typ, level := Classify(raw, r.state.lineType == LineBlank)
	text := strings.TrimSpace(raw)

	switch typ {
	case LineBlank:
		if !r.state.lineStart && r.lastType() != LineBlank {
			r.emit(LineBlank, "\n")
			r.state.trimFlag = false
		}
	case LinePageNumber:
		if r.lastType() == LineBlank {
			r.retract()
		}
	case LineHeading:
		r.state.level = level
		r.emit(LineHeading, r.closeTable()+"\n"+strings.Repeat("#", r.state.level)+" "+text+"\n")
		r.state.level = 1
	case LineTable:
		prefix := ""
		if r.lastType() != LineTable {
			prefix = r.openTable()
		}
		r.emit(LineTable, prefix+text+" |\n")
		r.state.trimFlag = true
	case LineBreak:
		r.emit(LineBreak, r.joinPrefix(text)+text+"\n")
	default:
		r.emit(LineNormal, r.joinPrefix(text)+text)
	}

	r.state.lineType = typ
}

// openTable 表格块之前留一个空行。
func (r *reconstructor) openTable() string {
	if r.state.lineStart || r.state.lastChar == '\n' {
		return "\n"
	}
	return "\n\n"
}

// closeTable 在表格块之后补一个换行。
func (r *reconstructor) closeTable() string {
	if r.state.trimFlag {
		r.state.trimFlag = false
		return "\n"
	}
	return ""
}

func (r *reconstructor) joinPrefix(text string) string {
	if p := r.closeTable(); p != "" {
		return p
	}
	first, _ := utf8.DecodeRuneInString(text)
	if !r.state.lineStart && isASCIIAlnum(r.state.lastChar) && isASCIIAlnum(first) {
		return " "
	}
	return ""
}

func (r *reconstructor) emit(typ LineType, text string) {
	r.units = append(r.units, unit{typ: typ, text: text})
	r.state.lastChar, _ = utf8.DecodeLastRuneInString(text)
	r.state.lineStart = false
}

func (r *reconstructor) retract() {
	r.units = r.units[:len(r.units)-1]
	if len(r.units) == 0 {
		r.state.lastChar = 0
		r.state.lineStart = true
		return
	}
	r.state.lastChar, _ = utf8.DecodeLastRuneInString(r.units[len(r.units)-1].text)
}

func (r *reconstructor) lastType() LineType {
	if len(r.units) == 0 {
		return LineNormal
	}
	return r.units[len(r.units)-1].typ
}
