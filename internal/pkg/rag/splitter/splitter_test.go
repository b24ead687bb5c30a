package splitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = []string{
	"",
	"男士内裤豆腐脑斯康杜尼。是不是12.54李雷l",
	"Retrieval-Augmented Generation (RAG) combines search with generation.\n\nIt works!",
	"  leading and trailing  \n",
	"版本 v1.2.3 发布于 2024年1月，共 3.5 万行代码……\r\n下一行",
	"混合mixed文本text与数字42和符号#@%",
	"第1章 绪论\n\t缩进的段落。\n",
	"invalid \xff\xfe bytes 也要保留",
}

func TestTokenizeRoundTrip(t *testing.T) {
	for _, s := range samples {
		assert.Equal(t, s, strings.Join(Tokenize(s), ""), s)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"汉字逐字", "你好", []string{"你", "好"}},
		{"汉字夹英文", "是李雷lily吗", []string{"是", "李", "雷", "lily", "吗"}},
		{"小数", "约12.54元", []string{"约", "12.54", "元"}},
		{"句末数字", "共12.", []string{"共", "12", "."}},
		{"只取一个小数部分", "1.2.3", []string{"1.2", ".", "3"}},
		{"空白串", "a  b", []string{"a", "  ", "b"}},
		{"换行单独成词", "a \n b", []string{"a", " ", "\n", " ", "b"}},
		{"标点", "好！", []string{"好", "！"}},
		{"假名逐字", "かな", []string{"か", "な"}},
		{"西里尔字母逐字", "да", []string{"д", "а"}},
		{"带重音的拉丁词", "café au lait", []string{"café", " ", "au", " ", "lait"}},
		{"组合附加符号并入单词", "cafe\u0301s", []string{"cafe\u0301s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestSplitShortInput(t *testing.T) {
	input := "男士内裤豆腐脑斯康杜尼。是不是12.54李雷l"
	chunks := Split(input, 1500)
	require.Len(t, chunks, 1)
	assert.Equal(t, input, chunks[0])
	assert.Equal(t, 19, CountTokens(input))
}

func TestSplitAtTerminator(t *testing.T) {
	chunks := Split("一二三。四五六七", 5)
	assert.Equal(t, []string{"一二三。", "四五六七"}, chunks)
}

func TestSplitTerminatorOnOverflow(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		want      []string
	}{
		{"英文句号随句结束", "Hello world foo.", 3, []string{"Hello world foo."}},
		{"中文句号随句结束", "一二三。四五", 3, []string{"一二三。", "四五"}},
		{"多句不产生纯标点块", "Hello world foo. Bar baz.", 3, []string{"Hello world foo.", " Bar baz."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.input, tt.maxLength)
			assert.Equal(t, tt.want, chunks)
			for _, c := range chunks {
				assert.NotEqual(t, ".", strings.TrimSpace(c))
			}
		})
	}
}

func TestSplitForced(t *testing.T) {
	chunks := Split("一二三四五六七", 3)
	assert.Equal(t, []string{"一二三", "四五六", "七"}, chunks)
}

func TestSplitWhitespaceIsFree(t *testing.T) {
	chunks := Split("一 二\n三", 3)
	assert.Equal(t, []string{"一 二\n三"}, chunks)
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", 10))
}

func TestSplitDefaultMaxLength(t *testing.T) {
	assert.Equal(t, DefaultMaxLength, NewSplitter(0).MaxLength())
	assert.Equal(t, DefaultMaxLength, NewSplitter(-5).MaxLength())
	assert.Equal(t, 20, NewSplitter(20).MaxLength())
}

func TestSplitProperties(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("检索增强生成把搜索和生成结合起来 with 12.5 percent recall gain")
		if i%3 == 0 {
			b.WriteString("。")
		}
		if i%5 == 0 {
			b.WriteString("\n\n")
		}
	}
	text := b.String()

	for _, maxLength := range []int{1, 7, 30, 200} {
		chunks := Split(text, maxLength)
		require.NotEmpty(t, chunks)
		assert.Equal(t, text, strings.Join(chunks, ""), "maxLength=%d", maxLength)
		for i, c := range chunks {
			assert.NotEmpty(t, c)
			limit := maxLength
			if endsWithTerminator(c) {
				limit++
			}
			assert.LessOrEqual(t, CountTokens(c), limit, "maxLength=%d chunk=%d", maxLength, i)
		}
	}
}

func endsWithTerminator(chunk string) bool {
	tokens := Tokenize(chunk)
	for i := len(tokens) - 1; i >= 0; i-- {
		if IsSpaceToken(tokens[i]) {
			continue
		}
		_, ok := terminators[tokens[i]]
		return ok
	}
	return false
}
