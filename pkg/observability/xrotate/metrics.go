package xrotate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/omeyang/xroll/pkg/observability/xrotate"

	metricRotateTotal      = "xroll.rotate.total"
	metricEvictTotal       = "xroll.retention.evict.total"
	metricWriteErrorsTotal = "xroll.write.errors.total"

	attrBase   = "base"
	attrStatus = "status"
)

// rotatorMetrics 轮转器指标
//
// 未通过 WithMeterProvider 注入时使用全局 MeterProvider，
// 全局未配置则为 noop，记录成本可以忽略。
type rotatorMetrics struct {
	rotations   metric.Int64Counter
	evictions   metric.Int64Counter
	writeErrors metric.Int64Counter
	base        attribute.KeyValue
}

func newRotatorMetrics(mp metric.MeterProvider, basePath string) (*rotatorMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	rotations, err := meter.Int64Counter(metricRotateTotal,
		metric.WithDescription("file rotations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create counter failed: %w", err)
	}
	evictions, err := meter.Int64Counter(metricEvictTotal,
		metric.WithDescription("retention evictions by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create counter failed: %w", err)
	}
	writeErrors, err := meter.Int64Counter(metricWriteErrorsTotal,
		metric.WithDescription("failed writes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create counter failed: %w", err)
	}

	return &rotatorMetrics{
		rotations:   rotations,
		evictions:   evictions,
		writeErrors: writeErrors,
		base:        attribute.String(attrBase, basePath),
	}, nil
}

func (m *rotatorMetrics) rotated() {
	m.rotations.Add(context.Background(), 1, metric.WithAttributes(m.base))
}

func (m *rotatorMetrics) evicted(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.evictions.Add(context.Background(), 1, metric.WithAttributes(m.base, attribute.String(attrStatus, status)))
}

func (m *rotatorMetrics) writeFailed() {
	m.writeErrors.Add(context.Background(), 1, metric.WithAttributes(m.base))
}
