package extractor

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livecheck/internal/shared/types"
	"livecheck/streampool/model"
)

func src(addr, payload string) model.SourceDescriptor {
	return model.SourceDescriptor{Address: addr, Kind: "text", Payload: payload}
}

func endpoints(cs []model.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Endpoint
	}
	return out
}

func TestExtract_SchemeFilter(t *testing.T) {
	payload := "ftp://x\nrtmp://x\n  https://a/b.m3u8  \nHTTP://upper\nnotaurl\nhttpx://y\n\n"
	got := slices.Collect(Extract(src("s1", payload), types.DefaultSchemes))

	assert.Equal(t, []string{"rtmp://x", "https://a/b.m3u8"}, endpoints(got))
	for _, c := range got {
		assert.Equal(t, "s1", c.Origin)
		assert.Equal(t, model.UnknownName, c.Name)
	}
}

func TestExtract_AllAllowedSchemes(t *testing.T) {
	payload := "http://a\nhttps://b\nrtmp://c\nrtsp://d\nrtp://e\np2p://f\np3p://g"
	got := slices.Collect(Extract(src("s", payload), types.DefaultSchemes))
	assert.Len(t, got, 7)
}

func TestExtract_NameCommaURL(t *testing.T) {
	payload := "CCTV1,http://a/1\nbad,ftp://b\n,rtsp://c\njust text, with comma\n" +
		"CCTV-1 综合, 高清,http://a/2\nQuery,http://a/3?x=1,2"
	got := slices.Collect(Extract(src("s", payload), types.DefaultSchemes))

	require.Len(t, got, 4)
	assert.Equal(t, "CCTV1", got[0].Name)
	assert.Equal(t, "http://a/1", got[0].Endpoint)
	assert.Equal(t, model.UnknownName, got[1].Name)
	assert.Equal(t, "rtsp://c", got[1].Endpoint)
	assert.Equal(t, "CCTV-1 综合, 高清", got[2].Name)
	assert.Equal(t, "http://a/2", got[2].Endpoint)
	assert.Equal(t, "Query", got[3].Name)
	assert.Equal(t, "http://a/3?x=1,2", got[3].Endpoint)
}

func TestExtract_GenreHeaders(t *testing.T) {
	payload := "央视频道,#genre#\nCCTV1,http://a\nCCTV2,http://b\n卫视频道,#genre#\n湖南卫视,http://c"
	got := slices.Collect(Extract(src("s", payload), types.DefaultSchemes))

	require.Len(t, got, 3)
	assert.Equal(t, "央视频道", got[0].Category)
	assert.Equal(t, "央视频道", got[1].Category)
	assert.Equal(t, "卫视频道", got[2].Category)
	assert.Equal(t, "湖南卫视", got[2].Name)
}

func TestExtract_M3U(t *testing.T) {
	payload := `#EXTM3U
#EXTINF:-1 tvg-id="bbc" group-title="News, World",BBC One
http://bbc/live.m3u8
#EXTVLCOPT:http-user-agent=foo
http://noname/live
#EXTINF:-1,Dropped
ftp://not-allowed
rtmp://after-drop
`
	got := slices.Collect(Extract(src("m3u", payload), types.DefaultSchemes))

	require.Len(t, got, 3)
	assert.Equal(t, "BBC One", got[0].Name)
	assert.Equal(t, "News, World", got[0].Category)
	assert.Equal(t, model.UnknownName, got[1].Name)
	assert.Empty(t, got[1].Category)
	assert.Equal(t, "rtmp://after-drop", got[2].Endpoint)
	assert.Equal(t, model.UnknownName, got[2].Name)
}

func TestExtract_M3UMetadataNotCarriedPastRejectedLine(t *testing.T) {
	payload := "#EXTINF:-1 group-title=\"News\",CCTV13\nftp://dead/13\nhttp://plain/other\n" +
		"#EXTINF:-1 group-title=\"Sports\",CCTV5\nnot a url\nhttp://plain/again"
	got := slices.Collect(Extract(src("m3u", payload), types.DefaultSchemes))

	require.Len(t, got, 2)
	for _, c := range got {
		assert.Equal(t, model.UnknownName, c.Name, c.Endpoint)
		assert.Empty(t, c.Category, c.Endpoint)
	}
}

func TestExtract_IsLazy(t *testing.T) {
	payload := "http://a\nhttp://b\nhttp://c"
	var seen []string
	for c := range Extract(src("s", payload), types.DefaultSchemes) {
		seen = append(seen, c.Endpoint)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"http://a", "http://b"}, seen)
}

func TestExtract_EmptyPayload(t *testing.T) {
	got := slices.Collect(Extract(src("s", ""), types.DefaultSchemes))
	assert.Empty(t, got)
}

func TestDedup_FirstSourceWins(t *testing.T) {
	s1 := src("first", "http://a.example/stream\nhttp://only-first")
	s2 := src("second", "http://only-second\nhttp://a.example/stream")

	got := Dedup(Extract(s1, types.DefaultSchemes), Extract(s2, types.DefaultSchemes))

	assert.Equal(t, []string{"http://a.example/stream", "http://only-first", "http://only-second"}, endpoints(got))
	assert.Equal(t, "first", got[0].Origin)
	for i, c := range got {
		assert.Equal(t, i, c.Index)
	}
}

func TestDedup_NoCanonicalization(t *testing.T) {
	s1 := src("s", "http://A.example/x\nhttp://a.example/x\nhttp://a.example/x")
	got := Dedup(Extract(s1, types.DefaultSchemes))
	assert.Equal(t, []string{"http://A.example/x", "http://a.example/x"}, endpoints(got))
}

func TestExtractAll_SkipsFailedAndEmptySources(t *testing.T) {
	sources := []model.SourceDescriptor{
		{Address: "down", Err: errors.New("connection refused")},
		src("empty", "nothing here"),
		src("ok", "http://a\nhttp://b"),
		src("dup", "http://b\nhttp://c"),
	}

	got := ExtractAll(sources, types.DefaultSchemes)

	assert.Equal(t, []string{"http://a", "http://b", "http://c"}, endpoints(got))
	assert.Equal(t, "ok", got[1].Origin)
	assert.Equal(t, "dup", got[2].Origin)
}
