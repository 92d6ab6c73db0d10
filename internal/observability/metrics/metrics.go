package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes royalty-domain instruments.
type Metrics struct {
	salesRecorded   metric.Int64Counter
	saleFailures    metric.Int64Counter
	royaltyAmount   metric.Int64Counter
	payoutEvents    metric.Int64Counter
	reportFallbacks metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "folio"
	}
	meter := provider.Meter(name)

	salesRecorded, err := meter.Int64Counter("folio_sales_recorded_total")
	if err != nil {
		return nil, err
	}
	saleFailures, err := meter.Int64Counter("folio_sale_failures_total")
	if err != nil {
		return nil, err
	}
	royaltyAmount, err := meter.Int64Counter("folio_royalty_amount_minor_total",
		metric.WithDescription("royalty and fee amounts allocated, in minor currency units"))
	if err != nil {
		return nil, err
	}
	payoutEvents, err := meter.Int64Counter("folio_payout_events_total")
	if err != nil {
		return nil, err
	}
	reportFallbacks, err := meter.Int64Counter("folio_report_fallbacks_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		salesRecorded:   salesRecorded,
		saleFailures:    saleFailures,
		royaltyAmount:   royaltyAmount,
		payoutEvents:    payoutEvents,
		reportFallbacks: reportFallbacks,
	}, nil
}

// RecordSale counts a committed sale and the amounts allocated to each party.
func (m *Metrics) RecordSale(ctx context.Context, currency string, platformFee, authorRoyalty, publisherShare int64) {
	if m == nil {
		return
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	m.salesRecorded.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("currency", currency))...))
	for party, amount := range map[string]int64{
		"platform":  platformFee,
		"author":    authorRoyalty,
		"publisher": publisherShare,
	} {
		m.royaltyAmount.Add(ctx, amount, metric.WithAttributes(FilterAttributes(
			attribute.String("currency", currency),
			attribute.String("party", party),
		)...))
	}
}

// RecordSaleFailure counts a sale recording that was rolled back.
func (m *Metrics) RecordSaleFailure(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.saleFailures.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))...))
}

// RecordPayoutEvent counts payout lifecycle transitions.
func (m *Metrics) RecordPayoutEvent(ctx context.Context, role, status string) {
	if m == nil {
		return
	}
	m.payoutEvents.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("role", strings.TrimSpace(role)),
		attribute.String("status", strings.TrimSpace(status)),
	)...))
}

// RecordReportFallback counts dashboard views served from cache or sample data.
func (m *Metrics) RecordReportFallback(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.reportFallbacks.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("source", strings.TrimSpace(source)))...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"currency":    {},
	"party":       {},
	"role":        {},
	"status":      {},
	"reason":      {},
	"source":      {},
	"route":       {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
