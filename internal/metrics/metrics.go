package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ 消费延迟（毫秒）
	ConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	// 单用户抓取耗时（秒）
	ScrapeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_duration_seconds",
			Help:    "Per-user scrape duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~50s
		},
		[]string{"source"}, // source: cms, mail
	)

	// 去重闸门结果计数
	FactGateResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fact_gate_results_total",
			Help: "Conditional-write outcomes per fact kind",
		},
		[]string{"kind", "result"}, // kind: announcement, item, mail; result: inserted, already_exists
	)

	// 通知发送计数
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Side effects performed per channel",
		},
		[]string{"channel"}, // channel: announcement_email, item_email, todoist_task, mail_forward
	)

	// 抓取错误计数
	ScrapeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_errors_total",
			Help: "Errors per scrape stage",
		},
		[]string{"stage"}, // stage: cms_course, mail_auth, mail_page, forward
	)
)

// RecordConsumeLatency 记录 MQ 消费延迟
func RecordConsumeLatency(routingKey, queue string, duration time.Duration) {
	ConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordGateResult 记录去重闸门结果
func RecordGateResult(kind, result string) {
	FactGateResults.WithLabelValues(kind, result).Inc()
}

// RecordNotificationSent 记录一次下游副作用
func RecordNotificationSent(channel string) {
	NotificationsSent.WithLabelValues(channel).Inc()
}

// RecordScrapeError 记录抓取错误
func RecordScrapeError(stage string) {
	ScrapeErrors.WithLabelValues(stage).Inc()
}
