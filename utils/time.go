package utils

import (
	"time"
)

// ParseTime 解析时间字符串（格式：HH:MM:SS 或 HH:MM）并应用到指定日期
func ParseTime(timeStr string, date time.Time) (time.Time, error) {
	if timeStr == "" {
		return date, nil
	}

	layout := "15:04:05"
	if len(timeStr) == 5 {
		layout = "15:04"
	}

	parsedTime, err := time.Parse(layout, timeStr)
	if err != nil {
		return date, err
	}

	return time.Date(
		date.Year(),
		date.Month(),
		date.Day(),
		parsedTime.Hour(),
		parsedTime.Minute(),
		parsedTime.Second(),
		0,
		date.Location(),
	), nil
}

// DateString 返回日期部分（YYYY-MM-DD）
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}
