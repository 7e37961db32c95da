package service

import (
	"errors"
	"time"

	"github.com/beanpass/internal/constants"
	"github.com/beanpass/internal/metrics"
)

// dayKey 返回指定时区下的日期键
func dayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.DateLayout)
}

// monthKey 返回指定时区下的月份键
func monthKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.MonthLayout)
}

var internalFailures = []error{
	ErrUserFetchFailed,
	ErrUserCreateFailed,
	ErrSubscriptionFetchFailed,
	ErrSubscriptionUpdateFailed,
	ErrCafeFetchFailed,
	ErrCafeSaveFailed,
	ErrQRCodeCreateFailed,
	ErrQRCodeFetchFailed,
	ErrRedeemFailed,
	ErrAnalyticsFetchFailed,
	ErrAnalyticsApplyFailed,
}

// IsInternalFailure 判断是否为基础设施类失败
func IsInternalFailure(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range internalFailures {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case IsInternalFailure(err):
		return metrics.OutcomeError
	default:
		return metrics.OutcomeRejected
	}
}

func observerOrNop(observer metrics.Observer) metrics.Observer {
	if observer == nil {
		return metrics.Nop()
	}
	return observer
}
