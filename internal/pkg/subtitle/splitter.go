// Package subtitle 把旁白文本切成适合叠加在画面上的短句。
package subtitle

import (
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// 句末标点,优先在这些位置断句
var sentenceEndings = map[rune]bool{
	'。': true, '！': true, '？': true, '；': true, '…': true,
	'.': true, '!': true, '?': true, ';': true,
}

// 次级断点
var softBreaks = map[rune]bool{
	'，': true, '、': true, '：': true, ',': true, ':': true,
}

// Splitter 字幕分割器,基于 gse 分词保证不在词中间断开
type Splitter struct {
	maxRunes  int
	segmenter *gse.Segmenter
}

// NewSplitter 创建分割器。maxRunes 是每段最大字符数,默认 14。
func NewSplitter(maxRunes int) *Splitter {
	if maxRunes <= 0 {
		maxRunes = 14
	}
	// 分词器加载失败时降级为逐字切分
	var segmenter *gse.Segmenter
	if seg, err := gse.New(); err == nil {
		segmenter = &seg
	}
	return &Splitter{
		maxRunes:  maxRunes,
		segmenter: segmenter,
	}
}

// Split 把文本切成若干字幕段,每段不超过 maxRunes 个字符
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var segments []string
	for _, sentence := range splitBy(text, sentenceEndings) {
		if runeLen(sentence) <= s.maxRunes {
			segments = append(segments, sentence)
			continue
		}
		for _, clause := range splitBy(sentence, softBreaks) {
			if runeLen(clause) <= s.maxRunes {
				segments = append(segments, clause)
			} else {
				segments = append(segments, s.splitByWords(clause)...)
			}
		}
	}
	return mergeTiny(segments, s.maxRunes)
}

// splitByWords 按分词边界累积,超长时断开
func (s *Splitter) splitByWords(text string) []string {
	words := s.cut(text)

	var segments []string
	var current strings.Builder
	currentLen := 0

	for _, word := range words {
		wordLen := runeLen(word)
		if currentLen > 0 && currentLen+wordLen > s.maxRunes {
			segments = append(segments, current.String())
			current.Reset()
			currentLen = 0
		}
		// 单词本身超长时逐字硬切
		if wordLen > s.maxRunes {
			for _, chunk := range hardSplit(word, s.maxRunes) {
				segments = append(segments, chunk)
			}
			continue
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}
	return segments
}

func (s *Splitter) cut(text string) []string {
	if s.segmenter != nil {
		return s.segmenter.Cut(text, false)
	}
	var words []string
	for _, r := range text {
		words = append(words, string(r))
	}
	return words
}

// splitBy 按给定标点集切分,标点保留在前一段末尾
func splitBy(text string, marks map[rune]bool) []string {
	var parts []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		if marks[r] {
			if p := strings.TrimSpace(current.String()); p != "" {
				parts = append(parts, p)
			}
			current.Reset()
		}
	}
	if p := strings.TrimSpace(current.String()); p != "" {
		parts = append(parts, p)
	}
	return parts
}

func hardSplit(text string, maxRunes int) []string {
	runes := []rune(text)
	var out []string
	for len(runes) > maxRunes {
		out = append(out, string(runes[:maxRunes]))
		runes = runes[maxRunes:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// mergeTiny 把只剩标点或单字符的段并入前一段,并入后超长则保持独立
func mergeTiny(segments []string, maxRunes int) []string {
	var out []string
	for _, seg := range segments {
		if runeLen(stripPunct(seg)) <= 1 && len(out) > 0 {
			prev := out[len(out)-1]
			if runeLen(prev)+runeLen(seg) <= maxRunes {
				out[len(out)-1] = prev + seg
				continue
			}
		}
		out = append(out, seg)
	}
	return out
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func runeLen(s string) int {
	return len([]rune(s))
}
