package instrumentation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config selects the exporters and the resource attributes of the
// telemetry pipeline. DefaultConfig reads it from the environment.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// ServiceInstanceID defaults to the host name.
	ServiceInstanceID string
	K8sNamespace      string
	K8sPodName        string

	// Enabled is false with INSTRUMENTATION_ENABLED=false; metrics are then
	// no-ops and no spans are exported.
	Enabled bool

	// MetricsExporter is one of prometheus (default), otlp or stdout.
	MetricsExporter string
	// TracingExporter is one of none (default), otlp or stdout.
	TracingExporter string

	// OTLPEndpoint is host:port without a scheme, e.g. localhost:4318.
	OTLPEndpoint string
	// OTLPInsecure disables TLS for OTLP export. Spans carry calendar and
	// event IDs, so keep it off outside local setups.
	OTLPInsecure bool

	TraceSamplingRate  float64
	PrometheusEndpoint string

	// DetailedLabels adds the account to tool metrics. High cardinality.
	DetailedLabels bool

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the per tool call audit line.
type AuditLoggingConfig struct {
	Enabled bool
	// IncludePII logs account names verbatim instead of their hash.
	IncludePII bool
}

// envSettings lists the environment variables read by DefaultConfig.
type envSettings struct {
	ServiceName        string  `envconfig:"OTEL_SERVICE_NAME" default:"calresolve"`
	ServiceInstanceID  string  `envconfig:"OTEL_SERVICE_INSTANCE_ID"`
	K8sNamespace       string  `envconfig:"K8S_NAMESPACE"`
	PodNamespace       string  `envconfig:"POD_NAMESPACE"`
	K8sPodName         string  `envconfig:"K8S_POD_NAME"`
	Hostname           string  `envconfig:"HOSTNAME"`
	Enabled            bool    `envconfig:"INSTRUMENTATION_ENABLED" default:"true"`
	MetricsExporter    string  `envconfig:"METRICS_EXPORTER" default:"prometheus"`
	TracingExporter    string  `envconfig:"TRACING_EXPORTER" default:"none"`
	OTLPEndpoint       string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure       bool    `envconfig:"OTEL_EXPORTER_OTLP_INSECURE"`
	TraceSamplingRate  float64 `envconfig:"OTEL_TRACES_SAMPLER_ARG" default:"0.1"`
	PrometheusEndpoint string  `envconfig:"PROMETHEUS_ENDPOINT" default:"/metrics"`
	DetailedLabels     bool    `envconfig:"METRICS_DETAILED_LABELS"`
	AuditEnabled       bool    `envconfig:"AUDIT_LOGGING_ENABLED" default:"true"`
	AuditIncludePII    bool    `envconfig:"AUDIT_LOGGING_INCLUDE_PII"`
}

// DefaultConfig returns a Config with defaults overridden by environment
// variables. Unparseable values leave the built-in defaults in place.
func DefaultConfig() Config {
	var env envSettings
	if err := envconfig.Process("", &env); err != nil {
		env = defaultEnvSettings(env)
	}

	namespace := env.K8sNamespace
	if namespace == "" {
		namespace = env.PodNamespace
	}
	podName := env.K8sPodName
	if podName == "" {
		podName = env.Hostname
	}

	return Config{
		ServiceName:        env.ServiceName,
		ServiceVersion:     "unknown",
		ServiceInstanceID:  env.ServiceInstanceID,
		K8sNamespace:       namespace,
		K8sPodName:         podName,
		Enabled:            env.Enabled,
		MetricsExporter:    env.MetricsExporter,
		TracingExporter:    env.TracingExporter,
		OTLPEndpoint:       env.OTLPEndpoint,
		OTLPInsecure:       env.OTLPInsecure,
		TraceSamplingRate:  env.TraceSamplingRate,
		PrometheusEndpoint: env.PrometheusEndpoint,
		DetailedLabels:     env.DetailedLabels,
		AuditLogging: AuditLoggingConfig{
			Enabled:    env.AuditEnabled,
			IncludePII: env.AuditIncludePII,
		},
	}
}

func defaultEnvSettings(env envSettings) envSettings {
	return envSettings{
		ServiceName:        "calresolve",
		ServiceInstanceID:  env.ServiceInstanceID,
		K8sNamespace:       env.K8sNamespace,
		PodNamespace:       env.PodNamespace,
		K8sPodName:         env.K8sPodName,
		Hostname:           env.Hostname,
		Enabled:            true,
		MetricsExporter:    ExporterPrometheus,
		TracingExporter:    ExporterNone,
		OTLPEndpoint:       env.OTLPEndpoint,
		TraceSamplingRate:  0.1,
		PrometheusEndpoint: "/metrics",
		AuditEnabled:       true,
	}
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %s", c.MetricsExporter, strings.Join(metricsExporters, ", "))
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %s", c.TracingExporter, strings.Join(tracingExporters, ", "))
	}
	if c.OTLPEndpoint == "" {
		switch {
		case c.TracingExporter == ExporterOTLP:
			return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
		case c.MetricsExporter == ExporterOTLP:
			return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
		}
	}
	return nil
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	ServiceCalendar = "calendar"

	OperationListUpcoming = "list_upcoming"
	OperationCreate       = "create"
	OperationUpdate       = "update"
	OperationDelete       = "delete"
)

const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// DefaultMetricInterval is the export period of push exporters.
	DefaultMetricInterval = 10 * time.Second
)
