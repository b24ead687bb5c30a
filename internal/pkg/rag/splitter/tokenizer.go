// Package splitter 将文本切分为有长度上限的检索块。
//
// 长度按非空白 token 计数：一个汉字、一个连续的拉丁字母串（可带组合附加符号）、一个数字（可带一个小数部分）
// 各算一个 token，因此切分不会拆开汉字、单词或小数。其余字符（假名、西里尔字母、标点等）
// 逐字成词。切分优先落在句末标点之后。
package splitter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize 将文本切分为 token 序列，按顺序拼接可还原原文。
func Tokenize(s string) []string {
	var tokens []string
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		j := i + size
		switch {
		case r == '\n':
		case isHan(r):
		case isLatin(r):
			j = scanWhile(s, j, isWordRune)
		case unicode.IsDigit(r):
			j = scanNumber(s, j)
		case isInlineSpace(r):
			j = scanWhile(s, j, isInlineSpace)
		}
		tokens = append(tokens, s[i:j])
		i = j
	}
	return tokens
}

// IsSpaceToken 判断 token 是否为空白，空白 token 不计入长度。
func IsSpaceToken(tok string) bool {
	return strings.TrimSpace(tok) == ""
}

func scanWhile(s string, i int, pred func(rune) bool) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !pred(r) {
			break
		}
		i += size
	}
	return i
}

// scanNumber 消费剩余整数部分以及至多一个小数部分。
func scanNumber(s string, i int) int {
	i = scanWhile(s, i, unicode.IsDigit)
	if i < len(s) && s[i] == '.' {
		if r, _ := utf8.DecodeRuneInString(s[i+1:]); unicode.IsDigit(r) {
			i = scanWhile(s, i+1, unicode.IsDigit)
		}
	}
	return i
}

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

func isLatin(r rune) bool {
	return unicode.Is(unicode.Latin, r)
}

// isWordRune 单词内允许拉丁字母及其后的组合附加符号。
func isWordRune(r rune) bool {
	return isLatin(r) || unicode.IsMark(r)
}

func isInlineSpace(r rune) bool {
	return r != '\n' && unicode.IsSpace(r)
}
