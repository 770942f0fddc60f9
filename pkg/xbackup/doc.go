// Package xbackup 提供备份文件的命名、解析与保留裁剪。
//
// # 命名
//
// 时间策略的备份名为 <base>.<stamp>，stamp 的布局由轮转单位决定
// （见 xsched.When.StampLayout）；目标名已存在时追加冲突序号
// <base>.<stamp>-1、<base>.<stamp>-2。大小策略的备份名为 <base>.<n>。
// 两种形式都可以带压缩扩展名（.gz / .zst）。
//
// # 排序与裁剪的唯一依据
//
// 备份的新旧关系只来自文件名中解析出的时间戳或序号。文件系统的
// 修改时间可以被时钟故障或外部触碰篡改，历史上曾导致错误删除，
// 因此本包从不将 mtime 作为排序回退：名字匹配模式但时间戳无法
// 通过严格日历校验的文件（如 9999-99-99）一律跳过，仅通过诊断
// 回调报告。
package xbackup
