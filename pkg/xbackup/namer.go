package xbackup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// 支持的压缩扩展名。压缩钩子生成的备份带这些后缀，
// 解析与裁剪时先剥离再处理。
const (
	GzipExt = ".gz"
	ZstdExt = ".zst"
)

// maxNameConflicts 冲突序号的扫描上限。同一秒内的轮转次数达到
// 这个数量说明配置本身有问题，此时退回纳秒后缀保证不覆盖。
const maxNameConflicts = 1000

// DiagFunc 诊断回调。用于报告被跳过的不可解析备份名等非错误事件。
// 回调不得写入正在轮转的日志文件自身。
type DiagFunc func(msg string, kv ...any)

// Namer 从基础路径派生备份文件名，并把已有备份名解析回可比较的键。
//
// 纯计算方法（Stamped/Sequential/ParseStamp/ParseSeq）并发安全；
// 涉及文件系统的方法（StampedUnique/ListStamped/ListSequential）
// 需要调用方保证与轮转互斥（引擎在跨进程锁内调用）。
type Namer struct {
	base   string // 活动日志文件的完整路径
	layout string // 时间戳布局
}

// NewNamer 创建命名器。base 为活动日志文件路径，layout 为时间戳布局。
func NewNamer(base, layout string) (*Namer, error) {
	if base == "" {
		return nil, ErrEmptyBase
	}
	if layout == "" {
		return nil, ErrEmptyLayout
	}
	return &Namer{base: filepath.Clean(base), layout: layout}, nil
}

// Base 返回活动日志文件路径。
func (n *Namer) Base() string { return n.base }

// Stamped 返回时间戳备份名 <base>.<stamp>。
func (n *Namer) Stamped(t time.Time) string {
	return n.base + "." + t.Format(n.layout)
}

// StampedUnique 返回一个当前不存在的时间戳备份名。
//
// 目标名已存在时（同一边界内的重复轮转，或冲突序号残留）追加
// -1、-2 …；扫描超过上限后退回纳秒后缀。
func (n *Namer) StampedUnique(t time.Time) string {
	name := n.Stamped(t)
	if !exists(name) {
		return name
	}
	for i := 1; i <= maxNameConflicts; i++ {
		candidate := fmt.Sprintf("%s-%d", name, i)
		if !exists(candidate) {
			return candidate
		}
	}
	return fmt.Sprintf("%s-%d", name, t.Nanosecond())
}

// Sequential 返回序号备份名 <base>.<n>。
func (n *Namer) Sequential(i int) string {
	return fmt.Sprintf("%s.%d", n.base, i)
}

// TrimCompressExt 剥离受支持的压缩扩展名。
func TrimCompressExt(name string) string {
	for _, ext := range []string{GzipExt, ZstdExt} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// ParseStamp 将备份文件名严格解析回时间戳与冲突序号。
//
// 解析针对 Stamped 使用的精确布局：任何不匹配——包括形似日期但
// 日历上不存在的值（如月份 99）——都返回 ok=false。绝不回退到
// 文件系统元数据。无冲突序号后缀时 serial 为 0；同一时间戳内
// 序号越大的备份越新。
func (n *Namer) ParseStamp(name string) (stamp time.Time, serial int, ok bool) {
	rest, ok := n.trimPrefix(name)
	if !ok {
		return time.Time{}, 0, false
	}
	rest = TrimCompressExt(rest)

	if t, err := time.Parse(n.layout, rest); err == nil {
		return t, 0, true
	}
	// 冲突序号后缀：<stamp>-N
	if i := strings.LastIndexByte(rest, '-'); i > 0 && isDigits(rest[i+1:]) {
		if t, err := time.Parse(n.layout, rest[:i]); err == nil {
			serial, err := strconv.Atoi(rest[i+1:])
			if err != nil {
				return time.Time{}, 0, false
			}
			return t, serial, true
		}
	}
	return time.Time{}, 0, false
}

// ParseSeq 将序号备份文件名解析回序号。
func (n *Namer) ParseSeq(name string) (int, bool) {
	rest, ok := n.trimPrefix(name)
	if !ok {
		return 0, false
	}
	rest = TrimCompressExt(rest)
	if !isDigits(rest) {
		return 0, false
	}
	seq, err := strconv.Atoi(rest)
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}

// trimPrefix 剥离 "<活动文件名>." 前缀，失败时 ok=false。
func (n *Namer) trimPrefix(name string) (string, bool) {
	b := filepath.Base(name)
	prefix := filepath.Base(n.base) + "."
	if !strings.HasPrefix(b, prefix) || len(b) == len(prefix) {
		return "", false
	}
	return b[len(prefix):], true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
