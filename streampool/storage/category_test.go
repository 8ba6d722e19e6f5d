package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livecheck/streampool/model"
)

func TestGuessCategory(t *testing.T) {
	cases := []struct{ name, want string }{
		{"CCTV-13 新闻", "新闻频道"},
		{"广东体育", "体育频道"},
		{"地方台 1", "地方频道"},
		{"湖南娱乐", "娱乐频道"},
		{"CCTV-1 综合", ""},
		{"", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, GuessCategory(tc.name))
		})
	}
}

func TestListWriter_KeywordCategoryFallback(t *testing.T) {
	reachable := model.ProbeOutcome{Kind: model.Reachable, Latency: time.Second}
	rs := model.ResultSet{
		Accepted: []model.Classification{
			classification("CCTV-13 新闻", "http://a", "", reachable, model.Accepted),
			classification("广东体育", "http://b", "", reachable, model.Accepted),
			classification("体育赛事", "http://c", "央视", reachable, model.Accepted),
			classification("CCTV-1", "http://d", "", reachable, model.Accepted),
		},
	}
	w := NewListWriter(t.TempDir(), "w.txt", "b.txt", Format{
		GenreHeader:     true,
		DefaultCategory: "其他频道",
		KeywordCategory: true,
		Delimiter:       ",",
	})
	require.NoError(t, w.Save(rs))

	assert.Equal(t,
		"新闻频道,#genre#\nhttp://a,1.000s\n"+
			"体育频道,#genre#\nhttp://b,1.000s\n"+
			"央视,#genre#\nhttp://c,1.000s\n"+
			"其他频道,#genre#\nhttp://d,1.000s\n",
		readFile(t, w.WhitePath()))
}
