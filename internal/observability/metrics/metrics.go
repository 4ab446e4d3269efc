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

// Metrics exposes application-level instruments.
type Metrics struct {
	invoicesIssued     metric.Int64Counter
	paymentsVerified   metric.Int64Counter
	attachmentsCleaned metric.Int64Counter
	cleanupFailures    metric.Int64Counter
	loginDenied        metric.Int64Counter
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
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "recoveryhub"
	}
	meter := provider.Meter(name)

	invoicesIssued, err := meter.Int64Counter("recoveryhub_invoices_issued_total")
	if err != nil {
		return nil, err
	}
	paymentsVerified, err := meter.Int64Counter("recoveryhub_payments_verified_total")
	if err != nil {
		return nil, err
	}
	attachmentsCleaned, err := meter.Int64Counter("recoveryhub_attachments_cleaned_total")
	if err != nil {
		return nil, err
	}
	cleanupFailures, err := meter.Int64Counter("recoveryhub_attachment_cleanup_failures_total")
	if err != nil {
		return nil, err
	}
	loginDenied, err := meter.Int64Counter("recoveryhub_login_rate_limited_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesIssued:     invoicesIssued,
		paymentsVerified:   paymentsVerified,
		attachmentsCleaned: attachmentsCleaned,
		cleanupFailures:    cleanupFailures,
		loginDenied:        loginDenied,
	}, nil
}

// RecordInvoiceIssued increments issued invoice counts.
func (m *Metrics) RecordInvoiceIssued(ctx context.Context, currency string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("currency", strings.ToUpper(strings.TrimSpace(currency))))
	m.invoicesIssued.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPaymentVerified increments verified payment counts.
func (m *Metrics) RecordPaymentVerified(ctx context.Context, network string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("network", strings.TrimSpace(network)))
	m.paymentsVerified.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAttachmentsCleaned adds swept attachment counts.
func (m *Metrics) RecordAttachmentsCleaned(ctx context.Context, deleted, failed int) {
	if m == nil {
		return
	}
	if deleted > 0 {
		m.attachmentsCleaned.Add(ctx, int64(deleted))
	}
	if failed > 0 {
		m.cleanupFailures.Add(ctx, int64(failed))
	}
}

// RecordLoginDenied increments rate-limited login counts.
func (m *Metrics) RecordLoginDenied(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("reason", strings.TrimSpace(reason)))
	m.loginDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
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
	"network":     {},
	"endpoint":    {},
	"status_code": {},
	"reason":      {},
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
