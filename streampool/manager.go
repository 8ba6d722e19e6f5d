package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"livecheck/internal/shared/logger"
	"livecheck/internal/shared/types"
	"livecheck/streampool/classifier"
	"livecheck/streampool/extractor"
	"livecheck/streampool/model"
	"livecheck/streampool/source"
	"livecheck/streampool/storage"
	"livecheck/streampool/validator"
)

// Manager 是直播源检测模块的总控制器:
// 抓取 -> 提取 -> 去重 -> 探测 -> 分类 -> 写出。
type Manager struct {
	sources   []source.Source
	schemes   []string
	threshold time.Duration
	scheduler *validator.Scheduler
	storage   storage.Storage
	interval  time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewManager 创建并初始化管理器。每次运行之间不共享任何状态。
func NewManager(cfg *types.Config, sources []source.Source, prober validator.Prober, st storage.Storage) *Manager {
	timeout := cfg.ProbeConf.ConnectTimeoutDuration()
	return &Manager{
		sources:   sources,
		schemes:   cfg.SourceConf.Schemes,
		threshold: cfg.ProbeConf.ValidThresholdDuration(),
		scheduler: validator.NewScheduler(prober, cfg.ProbeConf.MaxConcurrency, timeout, cfg.ProbeConf.DispatchRate),
		storage:   st,
		interval:  time.Duration(cfg.ScheduleConf.IntervalMinutes) * time.Minute,
		stopChan:  make(chan struct{}),
	}
}

// AddSource 添加一个来源到管理器。
func (m *Manager) AddSource(s source.Source) {
	m.sources = append(m.sources, s)
}

// RunOnce 执行一个完整的检测周期。只有写出失败或运行被取消时才返回错误;
// 取消时不会写出任何文件。
func (m *Manager) RunOnce(ctx context.Context) (model.ResultSet, error) {
	runID := uuid.NewString()
	l := logger.WithComponent("StreamPool/Manager").With().Str("run_id", runID).Logger()
	l.Info().Int("sources", len(m.sources)).Msg("Starting new check cycle...")
	start := time.Now()

	descriptors := m.fetchAll(ctx)
	candidates := extractor.ExtractAll(descriptors, m.schemes)

	outcomes, err := m.scheduler.Run(ctx, candidates)
	if err != nil {
		return model.ResultSet{}, fmt.Errorf("probe batch aborted: %w", err)
	}

	rs := classifier.Partition(outcomes, m.threshold)
	logClassifications(l, rs)

	if err := ctx.Err(); err != nil {
		return model.ResultSet{}, fmt.Errorf("check cycle aborted: %w", err)
	}

	if err := m.storage.Save(rs); err != nil {
		return rs, err
	}

	l.Info().
		Int("accepted", len(rs.Accepted)).
		Int("rejected", len(rs.Rejected)).
		Dur("elapsed", time.Since(start)).
		Msg("Check cycle finished.")
	return rs, nil
}

func logClassifications(l zerolog.Logger, rs model.ResultSet) {
	for _, c := range rs.Accepted {
		l.Debug().Str("endpoint", c.Candidate.Endpoint).Dur("latency", c.Outcome.Latency).Msg("Valid stream.")
	}
	for _, c := range rs.Rejected {
		if c.Outcome.Kind == model.Reachable {
			l.Debug().Str("endpoint", c.Candidate.Endpoint).Dur("latency", c.Outcome.Latency).Msg("Invalid stream (slow).")
			continue
		}
		l.Debug().
			Str("endpoint", c.Candidate.Endpoint).
			Str("reason", string(c.Outcome.Reason)).
			Str("detail", c.Outcome.Detail).
			Msg("Invalid stream (unreachable).")
	}
}

// fetchAll 并发抓取所有来源, 结果按配置顺序排列。抓取失败只记录在描述符中,
// 由 extractor.ExtractAll 统一打印警告。
func (m *Manager) fetchAll(ctx context.Context) []model.SourceDescriptor {
	descriptors := make([]model.SourceDescriptor, len(m.sources))

	var wg sync.WaitGroup
	for i, s := range m.sources {
		wg.Add(1)
		go func(idx int, src source.Source) {
			defer wg.Done()
			payload, err := src.Fetch(ctx)
			if err != nil {
				payload = ""
			}
			descriptors[idx] = model.SourceDescriptor{
				Address: src.Address(),
				Kind:    src.Kind(),
				Payload: payload,
				Err:     err,
			}
		}(i, s)
	}
	wg.Wait()
	return descriptors
}

// Start 在配置了 interval_minutes 时周期性地执行检测, 立即执行第一次。
func (m *Manager) Start(ctx context.Context) {
	l := logger.WithComponent("StreamPool/Manager")
	l.Info().Dur("interval", m.interval).Msg("Manager starting...")

	m.wg.Add(1)
	go m.schedulerLoop(ctx)
}

// schedulerLoop 监听 Ticker 和停止信号。上一次运行结束前不会开始新的运行。
func (m *Manager) schedulerLoop(ctx context.Context) {
	defer m.wg.Done()
	l := logger.WithComponent("StreamPool/Manager")

	m.runLogged(ctx)
	if m.interval <= 0 {
		return
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Info().Msg("Check ticker triggered.")
			m.runLogged(ctx)
		case <-ctx.Done():
			l.Info().Msg("Context cancelled. Shutting down scheduler.")
			return
		case <-m.stopChan:
			l.Info().Msg("Stop signal received. Shutting down scheduler.")
			return
		}
	}
}

func (m *Manager) runLogged(ctx context.Context) {
	if _, err := m.RunOnce(ctx); err != nil {
		l := logger.WithComponent("StreamPool/Manager")
		l.Error().Err(err).Msg("Check cycle failed.")
	}
}

// Stop 停止周期任务并等待当前运行结束。
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
	m.wg.Wait()
	logger.Info().Msg("StreamPool Manager gracefully stopped.")
}

// Wait blocks until the scheduler loop has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}
