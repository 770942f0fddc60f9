package xrotor

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/omeyang/rotatex/pkg/xbackup"
)

// Hook 轮转后处理钩子：接收刚生成的备份路径，返回处理后的路径。
//
// 在轮转序列内同步调用（仍持有跨进程锁），实现应当尽量轻量。
// 返回错误时备份原样保留，错误经 [WithOnError] 回调上报。
type Hook func(path string) (string, error)

// GzipHook 返回 gzip 压缩钩子。level 取 gzip 包定义的压缩级别
// （如 [gzip.BestSpeed]），超出合法范围时回落到默认级别。
// 压缩成功后删除源文件并返回 <path>.gz；任何一步失败都保留源文件。
func GzipHook(level int) Hook {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	return func(path string) (string, error) {
		dst := path + xbackup.GzipExt
		err := compressFile(path, dst, func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, level)
		})
		if err != nil {
			return path, err
		}
		return dst, nil
	}
}

// ZstdHook 返回 zstd 压缩钩子，使用默认压缩级别。
// 语义与 [GzipHook] 一致，产物为 <path>.zst。
func ZstdHook() Hook {
	return func(path string) (string, error) {
		dst := path + xbackup.ZstdExt
		err := compressFile(path, dst, func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		})
		if err != nil {
			return path, err
		}
		return dst, nil
	}
}

// compressFile 把 src 压缩写入 dst，全部落盘成功后才删除 src。
// 中途失败时清理半成品 dst，src 保持完好。
func compressFile(src, dst string, wrap func(io.Writer) (io.WriteCloser, error)) (err error) {
	//#nosec G304 -- 路径由轮转序列生成
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	//#nosec G304 -- 路径由轮转序列生成
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = out.Close()
			_ = os.Remove(dst)
		}
	}()

	cw, err := wrap(out)
	if err != nil {
		return err
	}
	if _, err = io.Copy(cw, in); err != nil {
		_ = cw.Close()
		return fmt.Errorf("compress %s: %w", src, err)
	}
	if err = cw.Close(); err != nil {
		return fmt.Errorf("flush %s: %w", dst, err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return os.Remove(src)
}
