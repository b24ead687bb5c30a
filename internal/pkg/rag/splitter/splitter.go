package splitter

import "strings"

// DefaultMaxLength 未指定上限时每块的最大 token 数。
const DefaultMaxLength = 1500

var terminators = map[string]struct{}{
	".": {}, "!": {}, "?": {}, "。": {}, "！": {}, "？": {},
}

// Splitter 按 token 数切分文本。
type Splitter struct {
	maxLength int
}

// NewSplitter 创建切分器，maxLength <= 0 时使用 DefaultMaxLength。
func NewSplitter(maxLength int) *Splitter {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Splitter{maxLength: maxLength}
}

// MaxLength 返回每块的最大 token 数。
func (s *Splitter) MaxLength() int {
	return s.maxLength
}

// Split 使用给定上限切分文本。
func Split(text string, maxLength int) []string {
	return NewSplitter(maxLength).Split(text)
}

// Split 切分文本，所有块按顺序拼接等于原文。
//
// 累计的非空白 token 超过上限时，在最后一个句末标点处断开（含触发 token 本身），
// 其后的 token 留给下一块；找不到句末标点则强制断开，触发 token 作为下一块的开头。
// 触发 token 恰为句末标点时随本块结束，此时块长为上限加一，避免标点单独成块。
func (s *Splitter) Split(text string) []string {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	var (
		chunks []string
		cur    []string
		count  int
	)
	for _, tok := range tokens {
		cur = append(cur, tok)
		if IsSpaceToken(tok) {
			continue
		}
		count++
		if count <= s.maxLength {
			continue
		}

		if cut := lastTerminator(cur); cut >= 0 {
			chunks = append(chunks, strings.Join(cur[:cut+1], ""))
			cur = append([]string(nil), cur[cut+1:]...)
		} else {
			chunks = append(chunks, strings.Join(cur[:len(cur)-1], ""))
			cur = []string{tok}
		}
		count = countTokens(cur)
	}

	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, ""))
	}
	return chunks
}

// CountTokens 返回文本中非空白 token 的数量。
func CountTokens(text string) int {
	return countTokens(Tokenize(text))
}

func countTokens(tokens []string) int {
	n := 0
	for _, tok := range tokens {
		if !IsSpaceToken(tok) {
			n++
		}
	}
	return n
}

func lastTerminator(tokens []string) int {
	for i := len(tokens) - 1; i >= 0; i-- {
		if _, ok := terminators[tokens[i]]; ok {
			return i
		}
	}
	return -1
}
