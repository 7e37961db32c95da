package config

import (
	"strings"
	"time"
)

const (
	defaultQRTTL        = 5 * time.Minute
	defaultQRCodeBytes  = 16
	defaultWeeklyWindow = 7
	defaultLookback     = 2
)

// QRTTL 兑换码有效期
func (c QRConfig) QRTTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return defaultQRTTL
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// NormalizedCodeBytes 兑换码随机字节数，最少 8 字节
func (c QRConfig) NormalizedCodeBytes() int {
	if c.CodeBytes < 8 {
		return defaultQRCodeBytes
	}
	return c.CodeBytes
}

// Location 统计使用的时区，解析失败时回退到本地时区
func (c AnalyticsConfig) Location() *time.Location {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// NormalizedWeeklyWindow 周汇总窗口天数
func (c AnalyticsConfig) NormalizedWeeklyWindow() int {
	if c.WeeklyWindow <= 0 {
		return defaultWeeklyWindow
	}
	return c.WeeklyWindow
}

// NormalizedLookback 新客判定时最多回查的历史兑换条数
func (c AnalyticsConfig) NormalizedLookback() int {
	if c.NewCustomerLookback < 2 {
		return defaultLookback
	}
	return c.NewCustomerLookback
}
