package storage

import (
	"strings"

	"livecheck/streampool/model"
)

// 名称关键词 -> 分类, 按顺序匹配。
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"新闻", "新闻频道"},
	{"体育", "体育频道"},
	{"地方", "地方频道"},
	{"娱乐", "娱乐频道"},
}

// GuessCategory returns the category implied by a channel name, or "" when no
// keyword matches.
func GuessCategory(name string) string {
	name = strings.ToLower(name)
	for _, k := range categoryKeywords {
		if strings.Contains(name, k.keyword) {
			return k.category
		}
	}
	return ""
}

func (w *ListWriter) category(c model.Candidate) string {
	if c.Category != "" {
		return c.Category
	}
	if w.format.KeywordCategory {
		if cat := GuessCategory(c.Name); cat != "" {
			return cat
		}
	}
	return w.format.DefaultCategory
}
