package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"livecheck/internal/shared/logger"
	"livecheck/streampool/model"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	genreSuffix     = ",#genre#"
	unreachableText = "unreachable"
)

// ErrWrite wraps every failure to persist an output list.
var ErrWrite = errors.New("failed to write stream list")

// Storage 接口定义了分类结果的持久化行为。
type Storage interface {
	Save(rs model.ResultSet) error
}

// Format 控制输出行的格式。
type Format struct {
	NameColumn      bool
	TimestampColumn bool
	GenreHeader     bool   // 分类变化时写入 "<分类>,#genre#"
	DefaultCategory string // 候选源没有分类时使用
	KeywordCategory bool   // 没有分类时先按名称关键词推断, 推断不出再用 DefaultCategory
	DetailedReason  bool   // 不可达时写出具体原因而不是 "unreachable"
	Delimiter       string
}

// ListWriter 实现了 Storage 接口, 把白名单和黑名单写成两个纯文本文件。
type ListWriter struct {
	baseDir   string
	whiteFile string
	blackFile string
	format    Format
	mu        sync.Mutex
}

// NewListWriter 创建一个新的 ListWriter 实例。
func NewListWriter(baseDir, whiteFile, blackFile string, format Format) *ListWriter {
	if format.Delimiter == "" {
		format.Delimiter = ", "
	}
	return &ListWriter{
		baseDir:   baseDir,
		whiteFile: whiteFile,
		blackFile: blackFile,
		format:    format,
	}
}

// WhitePath returns the full path of the accepted-list file.
func (w *ListWriter) WhitePath() string { return filepath.Join(w.baseDir, w.whiteFile) }

// BlackPath returns the full path of the rejected-list file.
func (w *ListWriter) BlackPath() string { return filepath.Join(w.baseDir, w.blackFile) }

// Save 创建输出目录并写入两个列表。空列表也会生成空文件。
func (w *ListWriter) Save(rs model.ResultSet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	l := logger.WithComponent("StreamPool/Storage")

	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		return fmt.Errorf("%w: create directory %s: %w", ErrWrite, w.baseDir, err)
	}

	if err := w.writeList(w.WhitePath(), rs.Accepted); err != nil {
		return err
	}
	l.Info().Str("path", w.WhitePath()).Int("count", len(rs.Accepted)).Msg("White list saved.")

	if err := w.writeList(w.BlackPath(), rs.Rejected); err != nil {
		return err
	}
	l.Info().Str("path", w.BlackPath()).Int("count", len(rs.Rejected)).Msg("Black list saved.")
	return nil
}

// writeList 先写临时文件再重命名, 读者不会看到写了一半的列表。
func (w *ListWriter) writeList(path string, items []model.Classification) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrWrite, path, err)
	}
	tmpName := tmp.Name()

	bw := bufio.NewWriter(tmp)
	werr := w.writeLines(bw, items)
	if werr == nil {
		werr = bw.Flush()
	}
	if werr == nil {
		werr = tmp.Chmod(0644)
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(tmpName, path)
	}
	if werr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, werr)
	}
	return nil
}

func (w *ListWriter) writeLines(bw *bufio.Writer, items []model.Classification) error {
	lastCategory := ""
	for i, c := range items {
		if w.format.GenreHeader {
			cat := w.category(c.Candidate)
			if i == 0 || cat != lastCategory {
				if _, err := bw.WriteString(cat + genreSuffix + "\n"); err != nil {
					return err
				}
				lastCategory = cat
			}
		}
		if _, err := bw.WriteString(w.FormatLine(c) + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// FormatLine 将一个分类结果格式化为一行文本:
// <name>, <endpoint>, <latency>s|<reason>[, <timestamp>]
func (w *ListWriter) FormatLine(c model.Classification) string {
	fields := make([]string, 0, 4)
	if w.format.NameColumn {
		fields = append(fields, c.Candidate.DisplayName())
	}
	fields = append(fields, c.Candidate.Endpoint, w.metric(c.Outcome))
	if w.format.TimestampColumn {
		fields = append(fields, c.Outcome.CheckedAt.Format(timestampLayout))
	}
	return strings.Join(fields, w.format.Delimiter)
}

func (w *ListWriter) metric(o model.ProbeOutcome) string {
	if o.Kind == model.Reachable {
		return strconv.FormatFloat(o.Latency.Seconds(), 'f', 3, 64) + "s"
	}
	if !w.format.DetailedReason {
		return unreachableText
	}
	switch o.Reason {
	case model.ReasonStatus:
		return "status " + strconv.Itoa(o.StatusCode)
	case model.ReasonTimeout, model.ReasonTransport:
		return string(o.Reason)
	default:
		return unreachableText
	}
}
