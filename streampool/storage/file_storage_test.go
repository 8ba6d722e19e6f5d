package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"livecheck/streampool/model"
)

var checkedAt = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

func classification(name, endpoint, category string, o model.ProbeOutcome, v model.Verdict) model.Classification {
	c := model.Candidate{Endpoint: endpoint, Name: name, Category: category}
	o.Candidate = c
	o.CheckedAt = checkedAt
	return model.Classification{Candidate: c, Outcome: o, Verdict: v}
}

func sampleResultSet() model.ResultSet {
	return model.ResultSet{
		Accepted: []model.Classification{
			classification("CCTV1", "http://ok/1", "央视", model.ProbeOutcome{Kind: model.Reachable, Latency: 1500 * time.Millisecond}, model.Accepted),
			classification("", "rtmp://ok/2", "", model.ProbeOutcome{Kind: model.Reachable, Latency: 20 * time.Millisecond}, model.Accepted),
		},
		Rejected: []model.Classification{
			classification("Slow", "http://slow", "央视", model.ProbeOutcome{Kind: model.Reachable, Latency: 9 * time.Second}, model.Rejected),
			classification("Gone", "http://gone", "", model.ProbeOutcome{Kind: model.Unreachable, Reason: model.ReasonStatus, StatusCode: 404}, model.Rejected),
		},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestListWriter_DefaultFormat(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "live_streams")
	w := NewListWriter(dir, "white_list.txt", "black_list.txt", Format{NameColumn: true, TimestampColumn: true})

	require.NoError(t, w.Save(sampleResultSet()))

	assert.Equal(t,
		"CCTV1, http://ok/1, 1.500s, 2024-05-01 08:30:00\n"+
			"Unknown, rtmp://ok/2, 0.020s, 2024-05-01 08:30:00\n",
		readFile(t, w.WhitePath()))
	assert.Equal(t,
		"Slow, http://slow, 9.000s, 2024-05-01 08:30:00\n"+
			"Gone, http://gone, unreachable, 2024-05-01 08:30:00\n",
		readFile(t, w.BlackPath()))
}

func TestListWriter_MinimalFormatWithDetailedReason(t *testing.T) {
	w := NewListWriter(t.TempDir(), "w.txt", "b.txt", Format{DetailedReason: true})
	require.NoError(t, w.Save(sampleResultSet()))

	assert.Equal(t, "http://ok/1, 1.500s\nrtmp://ok/2, 0.020s\n", readFile(t, w.WhitePath()))
	assert.Equal(t, "http://slow, 9.000s\nhttp://gone, status 404\n", readFile(t, w.BlackPath()))
}

func TestListWriter_GenreHeader(t *testing.T) {
	w := NewListWriter(t.TempDir(), "w.txt", "b.txt", Format{
		NameColumn:      true,
		GenreHeader:     true,
		DefaultCategory: "其他频道",
		Delimiter:       ",",
	})
	require.NoError(t, w.Save(sampleResultSet()))

	assert.Equal(t,
		"央视,#genre#\nCCTV1,http://ok/1,1.500s\n其他频道,#genre#\nUnknown,rtmp://ok/2,0.020s\n",
		readFile(t, w.WhitePath()))
}

func TestListWriter_EmptySetProducesEmptyFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewListWriter(dir, "w.txt", "b.txt", Format{NameColumn: true, GenreHeader: true})

	require.NoError(t, w.Save(model.ResultSet{}))

	assert.Empty(t, readFile(t, w.WhitePath()))
	assert.Empty(t, readFile(t, w.BlackPath()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary files must not be left behind")
}

func TestListWriter_OverwritesPreviousRun(t *testing.T) {
	w := NewListWriter(t.TempDir(), "w.txt", "b.txt", Format{})
	require.NoError(t, w.Save(sampleResultSet()))
	require.NoError(t, w.Save(model.ResultSet{}))
	assert.Empty(t, readFile(t, w.WhitePath()))
}

func TestListWriter_DirectoryFailureIsWriteError(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	w := NewListWriter(filepath.Join(blocker, "sub"), "w.txt", "b.txt", Format{})
	err := w.Save(sampleResultSet())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
}
