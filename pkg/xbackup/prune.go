package xbackup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Candidate 一个可参与保留裁剪的备份文件。
// Stamp 非零表示时间戳备份，Serial 是同一时间戳内的冲突序号
// （越大越新）；否则 Seq 有效，表示序号备份（越大越旧）。
type Candidate struct {
	Path   string
	Stamp  time.Time
	Serial int
	Seq    int
}

// ListStamped 列出时间戳备份。
//
// 先按文件名前缀过滤，再按 ParseStamp 严格解析；名字匹配前缀但
// 时间戳不可解析的文件通过 diag 报告并跳过，不参与任何排序或删除。
func (n *Namer) ListStamped(diag DiagFunc) ([]Candidate, error) {
	return n.list(diag, func(name string) (Candidate, bool) {
		t, serial, ok := n.ParseStamp(name)
		return Candidate{Stamp: t, Serial: serial}, ok
	})
}

// ListSequential 列出序号备份。
func (n *Namer) ListSequential(diag DiagFunc) ([]Candidate, error) {
	return n.list(diag, func(name string) (Candidate, bool) {
		seq, ok := n.ParseSeq(name)
		return Candidate{Seq: seq}, ok
	})
}

func (n *Namer) list(diag DiagFunc, parse func(string) (Candidate, bool)) ([]Candidate, error) {
	dir := filepath.Dir(n.base)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("xbackup: list %s: %w", dir, err)
	}

	prefix := filepath.Base(n.base) + "."
	var out []Candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || len(name) <= len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		c, ok := parse(name)
		if !ok {
			if diag != nil {
				diag("skipping backup with unparsable suffix", "name", name)
			}
			continue
		}
		c.Path = filepath.Join(dir, name)
		out = append(out, c)
	}
	return out, nil
}

// SelectForDeletion 返回超出保留数量的备份，从最旧开始。
//
// backupCount <= 0 表示不限制数量，返回 nil。
// 排序只依赖解析出的键：时间戳越早越旧；同一时间戳内冲突序号
// 越小越旧；序号备份的序号越大越旧。
func SelectForDeletion(cands []Candidate, backupCount int) []Candidate {
	if backupCount <= 0 || len(cands) <= backupCount {
		return nil
	}
	sorted := make([]Candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Stamp.Equal(b.Stamp) {
			return a.Stamp.Before(b.Stamp)
		}
		if a.Serial != b.Serial {
			return a.Serial < b.Serial
		}
		return a.Seq > b.Seq
	})
	return sorted[:len(sorted)-backupCount]
}
