// Package xconf 从配置文件装配日志轮转器。
//
// 支持 YAML 与 JSON 两种格式（按扩展名自动识别），解析为 [FileConfig]
// 后通过 [FileConfig.Options] 转换成 xrotor 的选项列表：
//
//	cfg, err := xconf.Load("/etc/app/rotate.yaml")
//	if err != nil {
//	    return err
//	}
//	path, opts, err := cfg.Options()
//	if err != nil {
//	    return err
//	}
//	w, err := xrotor.New(path, opts...)
//
// [Watch] 在配置文件变更时重新解析并回调，调用方自行决定是否按
// 新配置重建轮转器（轮转器本身不支持热改参数，重建即换新实例）。
package xconf
