package xsched_test

import (
	"fmt"
	"time"

	"github.com/omeyang/rotatex/pkg/xsched"
)

func ExamplePolicy_Next() {
	// 午夜对齐的每日轮转：无论进程何时启动，边界总落在午夜
	p := xsched.Policy{When: xsched.Midnight, Interval: 1, UTC: true}

	last := time.Date(2025, 6, 1, 17, 45, 12, 0, time.UTC)
	fmt.Println(p.Next(last).Format(time.RFC3339))
	// Output: 2025-06-02T00:00:00Z
}

func ExampleParseWhen() {
	w, err := xsched.ParseWhen("midnight")
	if err != nil {
		fmt.Println("解析失败:", err)
		return
	}
	fmt.Println(w, w.StampLayout())
	// Output: MIDNIGHT 2006-01-02
}
