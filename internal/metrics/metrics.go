package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 结果标签
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	// OutcomeDuplicate 重复投递的事件
	OutcomeDuplicate = "duplicate"
	// OutcomeDeadLetter 超过重试上限进入死信
	OutcomeDeadLetter = "dead_letter"
)

// Observer 业务指标采集接口
type Observer interface {
	RecordIssue(outcome string)
	RecordRedeem(outcome string, duration time.Duration)
	RecordOutboxPublish(outcome string)
	RecordAnalyticsApply(outcome string)
	RecordRollup(duration time.Duration, err error)
}

// PrometheusObserver 导出到 Prometheus 的指标实现
type PrometheusObserver struct {
	issueTotal      *prometheus.CounterVec
	redeemTotal     *prometheus.CounterVec
	redeemDuration  *prometheus.HistogramVec
	outboxTotal     *prometheus.CounterVec
	analyticsTotal  *prometheus.CounterVec
	rollupDuration  prometheus.Histogram
	rollupFailTotal prometheus.Counter
	registry        prometheus.Gatherer
}

// NewPrometheusObserver 注册全部业务指标
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "beanpass"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		issueTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qr_issue_total",
			Help:      "QR token issuance attempts by outcome.",
		}, []string{"outcome"}),
		redeemTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "qr_redeem_total",
			Help:      "QR token redemption attempts by outcome.",
		}, []string{"outcome"}),
		redeemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "qr_redeem_duration_seconds",
			Help:      "Latency of QR token redemption.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		outboxTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_outbox_publish_total",
			Help:      "Analytics outbox publish attempts by outcome.",
		}, []string{"outcome"}),
		analyticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_apply_total",
			Help:      "Redemption analytics applications by outcome.",
		}, []string{"outcome"}),
		rollupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analytics_rollup_duration_seconds",
			Help:      "Duration of the daily analytics rollup.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		rollupFailTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_rollup_failures_total",
			Help:      "Daily analytics rollup runs that reported errors.",
		}),
	}
	if gatherer, ok := reg.(prometheus.Gatherer); ok {
		o.registry = gatherer
	} else {
		o.registry = prometheus.DefaultGatherer
	}

	var err error
	if o.issueTotal, err = registerCounterVec(reg, o.issueTotal); err != nil {
		return nil, err
	}
	if o.redeemTotal, err = registerCounterVec(reg, o.redeemTotal); err != nil {
		return nil, err
	}
	if o.outboxTotal, err = registerCounterVec(reg, o.outboxTotal); err != nil {
		return nil, err
	}
	if o.analyticsTotal, err = registerCounterVec(reg, o.analyticsTotal); err != nil {
		return nil, err
	}
	if err := reg.Register(o.redeemDuration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register redeem duration metric: %w", err)
		}
		o.redeemDuration = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	if err := reg.Register(o.rollupDuration); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register rollup duration metric: %w", err)
		}
		o.rollupDuration = are.ExistingCollector.(prometheus.Histogram)
	}
	if err := reg.Register(o.rollupFailTotal); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register rollup failure metric: %w", err)
		}
		o.rollupFailTotal = are.ExistingCollector.(prometheus.Counter)
	}
	return o, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register counter metric: %w", err)
	}
	return vec, nil
}

// Handler 返回 /metrics 处理器
func (o *PrometheusObserver) Handler() http.Handler {
	if o == nil || o.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// RecordIssue 记录签发结果
func (o *PrometheusObserver) RecordIssue(outcome string) {
	if o == nil {
		return
	}
	o.issueTotal.WithLabelValues(outcome).Inc()
}

// RecordRedeem 记录核销结果与耗时
func (o *PrometheusObserver) RecordRedeem(outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	o.redeemTotal.WithLabelValues(outcome).Inc()
	o.redeemDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordOutboxPublish 记录发件箱投递结果
func (o *PrometheusObserver) RecordOutboxPublish(outcome string) {
	if o == nil {
		return
	}
	o.outboxTotal.WithLabelValues(outcome).Inc()
}

// RecordAnalyticsApply 记录统计应用结果
func (o *PrometheusObserver) RecordAnalyticsApply(outcome string) {
	if o == nil {
		return
	}
	o.analyticsTotal.WithLabelValues(outcome).Inc()
}

// RecordRollup 记录日终任务
func (o *PrometheusObserver) RecordRollup(duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.rollupDuration.Observe(duration.Seconds())
	if err != nil {
		o.rollupFailTotal.Inc()
	}
}

type nopObserver struct{}

// Nop 返回不采集任何指标的实现
func Nop() Observer {
	return nopObserver{}
}

func (nopObserver) RecordIssue(string) {}

func (nopObserver) RecordRedeem(string, time.Duration) {}

func (nopObserver) RecordOutboxPublish(string) {}

func (nopObserver) RecordAnalyticsApply(string) {}

func (nopObserver) RecordRollup(time.Duration, error) {}
