package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
	"livecheck/internal/shared/types"
)

// SourceEntry 是直播源列表文件中的一行。
type SourceEntry struct {
	Kind    string // "text", "channel" 或 "links"
	Address string
}

var sourceKinds = map[string]struct{}{
	"text":    {},
	"channel": {},
	"links":   {},
}

// LoadIni 加载 livecheck.ini 配置文件, 未出现的键保持 DefaultConfig 的值。
func LoadIni(fileName string) (*types.Config, error) {
	cfg := types.DefaultConfig()
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return nil, err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return nil, err
	}

	overrideFromEnvInt(&cfg.ProbeConf.MaxConcurrency, "LIVECHECK_MAX_CONCURRENCY")
	overrideFromEnvFloat(&cfg.ProbeConf.ValidThreshold, "LIVECHECK_VALID_THRESHOLD")
	overrideFromEnvFloat(&cfg.ProbeConf.ConnectTimeout, "LIVECHECK_CONNECT_TIMEOUT")
	overrideFromEnvString(&cfg.OutputConf.BaseDir, "LIVECHECK_OUTPUT_DIR")

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func Validate(cfg *types.Config) error {
	if cfg.ProbeConf.ConnectTimeout <= 0 {
		return fmt.Errorf("probe.connect_timeout must be positive, got %v", cfg.ProbeConf.ConnectTimeout)
	}
	if cfg.ProbeConf.ValidThreshold <= 0 {
		return fmt.Errorf("probe.valid_threshold must be positive, got %v", cfg.ProbeConf.ValidThreshold)
	}
	if cfg.ProbeConf.MaxConcurrency <= 0 {
		return fmt.Errorf("probe.max_concurrency must be positive, got %d", cfg.ProbeConf.MaxConcurrency)
	}
	if len(cfg.SourceConf.Schemes) == 0 {
		return fmt.Errorf("source.schemes must not be empty")
	}
	if cfg.OutputConf.BaseDir == "" {
		return fmt.Errorf("output.base_dir must not be empty")
	}
	return nil
}

// LoadSources 读取直播源列表文件。
// 每行一个地址, 可选前缀 "channel|" 或 "links|" 指定解析方式, '#' 开头为注释。
func LoadSources(fileName string) ([]SourceEntry, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sources file: %w", err)
	}
	defer f.Close()

	var entries []SourceEntry
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entry, err := parseSourceLine(line)
		if err != nil {
			return nil, fmt.Errorf("sources file line %d: %w", lineNum, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}
	return entries, nil
}

func parseSourceLine(line string) (SourceEntry, error) {
	kind, addr, found := strings.Cut(line, "|")
	if !found {
		return SourceEntry{Kind: "text", Address: line}, nil
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if _, ok := sourceKinds[kind]; !ok {
		return SourceEntry{}, fmt.Errorf("unknown source kind %q", kind)
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return SourceEntry{}, fmt.Errorf("empty source address")
	}
	return SourceEntry{Kind: kind, Address: addr}, nil
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

func overrideFromEnvFloat(target *float64, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if v, err := strconv.ParseFloat(envValue, 64); err == nil {
			*target = v
		}
	}
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}
