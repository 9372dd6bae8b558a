package utils

import (
	"fmt"
	"time"
)

// 默认营业窗口 05:00–23:00，未配置时兜底
const (
	DefaultWindowStart = "05:00"
	DefaultWindowEnd   = "23:00"
)

// MinutesOfDay 把 "HH:MM" 转成当日分钟数
func MinutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// WithinWindow 判断 now 是否落在 [start, end] 营业窗口内。
// end < start 表示跨午夜窗口（now >= start 或 now <= end）。
// start/end 为空时使用默认窗口。
func WithinWindow(start, end string, now time.Time) bool {
	if start == "" || end == "" {
		start, end = DefaultWindowStart, DefaultWindowEnd
	}

	startMin, err := MinutesOfDay(start)
	if err != nil {
		return true // 配置坏了不挡人，按全天放行
	}
	endMin, err := MinutesOfDay(end)
	if err != nil {
		return true
	}

	nowMin := now.Hour()*60 + now.Minute()

	if endMin < startMin {
		return nowMin >= startMin || nowMin <= endMin
	}
	return nowMin >= startMin && nowMin <= endMin
}
