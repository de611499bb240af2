package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// stats 进程内收集轮转器指标，退出时打印汇总（--stats）
type stats struct {
	reader *sdkmetric.ManualReader
	mp     *sdkmetric.MeterProvider
}

func newStats() *stats {
	reader := sdkmetric.NewManualReader()
	return &stats{
		reader: reader,
		mp:     sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
	}
}

// collect 汇总所有 int64 计数器，键为 "指标名" 或 "指标名{status=...}"
func (s *stats) collect(ctx context.Context) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				key := m.Name
				if status, ok := dp.Attributes.Value(attribute.Key("status")); ok {
					key = fmt.Sprintf("%s{status=%s}", m.Name, status.AsString())
				}
				out[key] += dp.Value
			}
		}
	}
	return out, nil
}

// report 按名称排序打印汇总后关闭 MeterProvider
func (s *stats) report(ctx context.Context, w io.Writer) error {
	values, err := s.collect(ctx)
	if err != nil {
		return err
	}
	for _, name := range slices.Sorted(maps.Keys(values)) {
		fmt.Fprintf(w, "%s %d\n", name, values[name])
	}
	return s.mp.Shutdown(ctx)
}

func (s *stats) shutdown(ctx context.Context) error {
	return s.mp.Shutdown(ctx)
}
