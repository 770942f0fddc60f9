// Package xfile 提供日志与锁文件路径的格式净化和目录保障。
//
// [SanitizePath] 只做格式净化（空路径、空字节、相对路径穿越、显式
// 目录路径），不提供目录沙箱语义；轮转引擎用它校验构造时传入的
// 日志文件路径。[EnsureDir] 保证文件的父目录存在。
package xfile
