package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"livecheck/internal/shared/config"
	"livecheck/internal/shared/logger"
	"livecheck/internal/shared/types"
	manager "livecheck/streampool"
	"livecheck/streampool/source"
	"livecheck/streampool/storage"
	"livecheck/streampool/validator"
)

func main() {
	configDir := flag.String("configdir", "configs", "Path to config directory")
	flag.Parse()

	iniPath := filepath.Join(*configDir, "livecheck.ini")

	// 1. 加载 .ini 配置
	cfg, err := config.LoadIni(iniPath)
	if err != nil {
		// Use standard fmt before logger is initialized.
		fmt.Fprintf(os.Stderr, "Fatal: Failed to load config file '%s': %v\n", iniPath, err)
		os.Exit(1)
	}

	// 1.1 初始化日志系统
	if err := logger.Init(cfg.LogConf); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// 2. 加载直播源列表
	sourcesPath := cfg.SourceConf.ListFile
	if !filepath.IsAbs(sourcesPath) {
		sourcesPath = filepath.Join(*configDir, sourcesPath)
	}
	entries, err := config.LoadSources(sourcesPath)
	if err != nil {
		logger.Fatal().Err(err).Msgf("Failed to load sources file '%s'", sourcesPath)
	}

	sources, err := buildSources(cfg, entries)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build sources.")
	}

	prober, err := validator.NewStreamProber(validator.ProberOptions{
		ConnectTimeout: cfg.ProbeConf.ConnectTimeoutDuration(),
		UserAgent:      cfg.ProbeConf.UserAgent,
		Proxy:          cfg.ProbeConf.Proxy,
		TLSFingerprint: cfg.ProbeConf.TLSFingerprint,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create prober.")
	}

	writer := storage.NewListWriter(cfg.OutputConf.BaseDir, cfg.OutputConf.WhiteFile, cfg.OutputConf.BlackFile, storage.Format{
		NameColumn:      cfg.OutputConf.NameColumn,
		TimestampColumn: cfg.OutputConf.TimestampColumn,
		GenreHeader:     cfg.OutputConf.GenreHeader,
		DefaultCategory: cfg.OutputConf.DefaultCategory,
		KeywordCategory: cfg.OutputConf.KeywordCategory,
		DetailedReason:  cfg.OutputConf.DetailedReason,
		Delimiter:       cfg.OutputConf.Delimiter,
	})

	// 3. 创建并运行管理器; 收到终止信号时丢弃正在进行的探测, 不写出文件
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := manager.NewManager(cfg, sources, prober, writer)

	if cfg.ScheduleConf.IntervalMinutes <= 0 {
		if _, err := m.RunOnce(ctx); err != nil {
			logger.Error().Err(err).Msg("Check run failed.")
			stop()
			os.Exit(1)
		}
		return
	}

	m.Start(ctx)
	m.Wait()
}

func buildSources(cfg *types.Config, entries []config.SourceEntry) ([]source.Source, error) {
	opts := source.Options{
		Timeout:   cfg.SourceConf.FetchTimeoutDuration(),
		UserAgent: cfg.ProbeConf.UserAgent,
	}
	sources := make([]source.Source, 0, len(entries))
	for _, e := range entries {
		s, err := source.New(e.Kind, e.Address, opts)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, nil
}
