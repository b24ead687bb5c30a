package layout

import "strings"

// LastHeading 返回重建文本中最后一个标题的文字，没有标题时返回 false。
func LastHeading(text string) (string, bool) {
	var (
		found   string
		matched bool
	)
	for _, line := range strings.Split(text, "\n") {
		if title, ok := headingText(line); ok {
			found, matched = title, true
		}
	}
	return found, matched
}

func headingText(line string) (string, bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n == 0 || n > 3 || n >= len(line) || line[n] != ' ' {
		return "", false
	}
	title := strings.TrimSpace(line[n+1:])
	return title, title != ""
}
