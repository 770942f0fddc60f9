package xsched

import (
	"fmt"
	"strings"
	"time"
)

// When 时间触发单位。
type When int

// 触发单位取值。Monday~Sunday 表示按星期轮转，边界落在对应星期的午夜。
const (
	Second When = iota
	Minute
	Hour
	Day
	Midnight
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// whenNames When 与配置字符串的对应关系。
// W0=星期一，与常见日志轮转实现的约定一致。
var whenNames = map[When]string{
	Second:    "S",
	Minute:    "M",
	Hour:      "H",
	Day:       "D",
	Midnight:  "MIDNIGHT",
	Monday:    "W0",
	Tuesday:   "W1",
	Wednesday: "W2",
	Thursday:  "W3",
	Friday:    "W4",
	Saturday:  "W5",
	Sunday:    "W6",
}

// ParseWhen 解析触发单位字符串（大小写不敏感）。
func ParseWhen(s string) (When, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for w, name := range whenNames {
		if name == up {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWhen, s)
}

// String 返回配置字符串形式。
func (w When) String() string {
	if name, ok := whenNames[w]; ok {
		return name
	}
	return fmt.Sprintf("When(%d)", int(w))
}

// valid 报告 w 是否为已定义的单位。
func (w When) valid() bool {
	_, ok := whenNames[w]
	return ok
}

// weekly 报告 w 是否为按星期轮转。
func (w When) weekly() bool {
	return w >= Monday && w <= Sunday
}

// weekday 返回按星期轮转的目标星期。仅在 weekly() 为真时有意义。
func (w When) weekday() time.Weekday {
	// W0=星期一 ... W6=星期日，映射到 time.Weekday（Sunday=0）
	if w == Sunday {
		return time.Sunday
	}
	return time.Weekday(int(w-Monday) + 1)
}

// StampLayout 返回该单位下备份文件时间戳的 time 布局。
//
// 粒度与单位匹配：按天或更粗的单位只含日期，更细的单位含时分秒。
func (w When) StampLayout() string {
	switch w {
	case Second:
		return "2006-01-02_15-04-05"
	case Minute:
		return "2006-01-02_15-04"
	case Hour:
		return "2006-01-02_15"
	default:
		return "2006-01-02"
	}
}
