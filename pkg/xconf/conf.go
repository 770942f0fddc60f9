package xconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/rotatex/pkg/xrotor"
	"github.com/omeyang/rotatex/pkg/xsched"
)

// Format 配置文件格式。
type Format string

// 支持的配置格式。
const (
	// FormatYAML YAML 格式（推荐用于 K8s ConfigMap）
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式
	FormatJSON Format = "json"
)

// koanfTag 结构体字段映射使用的标签名
const koanfTag = "koanf"

// FileConfig 轮转器的文件配置。
//
// 字段与 xrotor 选项一一对应；零值字段不产生选项，沿用 xrotor
// 的默认值。BackupCount 取负值表示不限制备份数量（xrotor 用 0
// 表达同一语义，但 0 在这里无法与"未配置"区分）。
type FileConfig struct {
	// Path 活动日志文件路径（必填）
	Path string `koanf:"path"`

	// MaxBytes 大小触发阈值（字节），0 表示不启用
	MaxBytes int64 `koanf:"max_bytes"`

	// BackupCount 保留的备份数量；负值表示不限制
	BackupCount int `koanf:"backup_count"`

	// When 时间触发单位："S" "M" "H" "D" "MIDNIGHT" "W0"~"W6"
	When string `koanf:"when"`

	// Interval 时间触发的间隔倍数，缺省 1
	Interval int `koanf:"interval"`

	// Cron 标准五段 cron 表达式，与 When/Interval 互斥
	Cron string `koanf:"cron"`

	// UTC 时间边界按 UTC 计算（默认本地时区）
	UTC bool `koanf:"utc"`

	// LockDir 跨进程锁文件的存放目录（默认与日志同目录）
	LockDir string `koanf:"lock_dir"`

	// Compress 备份压缩方式："" "none" "gzip" "gzip:<级别>" "zstd"
	Compress string `koanf:"compress"`

	// MinValidEpoch 最早可信时刻（Unix 秒）
	MinValidEpoch int64 `koanf:"min_valid_epoch"`

	// FileMode 活动文件权限，八进制字符串（如 "0640"）
	FileMode string `koanf:"file_mode"`

	// AcquireTimeout 轮转等锁上限，Go duration 字符串（如 "10s"）
	AcquireTimeout string `koanf:"acquire_timeout"`
}

// Load 从文件装载轮转配置，按扩展名识别格式。
func Load(path string) (*FileConfig, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	//#nosec G304 -- 配置路径由调用方给定
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return LoadBytes(data, format)
}

// LoadBytes 从字节数据装载轮转配置，需显式指定格式。
// 空数据得到零值配置（Options 会因缺少 path 而报错）。
func LoadBytes(data []byte, format Format) (*FileConfig, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
		}
	}

	cfg := &FileConfig{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: koanfTag}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return cfg, nil
}

// Options 把文件配置转换为轮转器的构造参数。
//
// 只做字段级的取值转换；组合约束（触发器互斥、阈值范围等）
// 由 xrotor.New 统一校验。
func (c *FileConfig) Options() (string, []xrotor.Option, error) {
	if c.Path == "" {
		return "", nil, fmt.Errorf("%w: path is required", ErrInvalidConfig)
	}

	var opts []xrotor.Option
	if c.MaxBytes != 0 {
		opts = append(opts, xrotor.WithMaxBytes(c.MaxBytes))
	}
	switch {
	case c.BackupCount < 0:
		opts = append(opts, xrotor.WithBackupCount(0))
	case c.BackupCount > 0:
		opts = append(opts, xrotor.WithBackupCount(c.BackupCount))
	}

	if c.When != "" {
		when, err := xsched.ParseWhen(c.When)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		interval := c.Interval
		if interval == 0 {
			interval = 1
		}
		opts = append(opts, xrotor.WithRotation(when, interval))
	}
	if c.Cron != "" {
		opts = append(opts, xrotor.WithCronSchedule(c.Cron))
	}
	if c.UTC {
		opts = append(opts, xrotor.WithUTC(true))
	}
	if c.LockDir != "" {
		opts = append(opts, xrotor.WithLockDir(c.LockDir))
	}

	hook, err := parseCompress(c.Compress)
	if err != nil {
		return "", nil, err
	}
	if hook != nil {
		opts = append(opts, xrotor.WithCompressHook(hook))
	}

	if c.MinValidEpoch > 0 {
		opts = append(opts, xrotor.WithMinValidInstant(time.Unix(c.MinValidEpoch, 0).UTC()))
	}
	if c.FileMode != "" {
		mode, err := strconv.ParseUint(c.FileMode, 8, 32)
		if err != nil {
			return "", nil, fmt.Errorf("%w: file_mode %q: %w", ErrInvalidConfig, c.FileMode, err)
		}
		opts = append(opts, xrotor.WithFileMode(os.FileMode(mode)))
	}
	if c.AcquireTimeout != "" {
		d, err := time.ParseDuration(c.AcquireTimeout)
		if err != nil {
			return "", nil, fmt.Errorf("%w: acquire_timeout %q: %w", ErrInvalidConfig, c.AcquireTimeout, err)
		}
		opts = append(opts, xrotor.WithAcquireTimeout(d))
	}

	return c.Path, opts, nil
}

// parseCompress 解析压缩配置值。
func parseCompress(v string) (xrotor.Hook, error) {
	switch {
	case v == "" || v == "none":
		return nil, nil
	case v == "gzip":
		return xrotor.GzipHook(gzip.DefaultCompression), nil
	case strings.HasPrefix(v, "gzip:"):
		level, err := strconv.Atoi(strings.TrimPrefix(v, "gzip:"))
		if err != nil || level < gzip.BestSpeed || level > gzip.BestCompression {
			return nil, fmt.Errorf("%w: compress %q: gzip level must be %d~%d",
				ErrInvalidConfig, v, gzip.BestSpeed, gzip.BestCompression)
		}
		return xrotor.GzipHook(level), nil
	case v == "zstd":
		return xrotor.ZstdHook(), nil
	default:
		return nil, fmt.Errorf("%w: unknown compress %q", ErrInvalidConfig, v)
	}
}

// detectFormat 根据文件扩展名检测配置格式。
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
