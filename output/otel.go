package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/WerlingM/privacy-exif-cleaner/config"
	"github.com/WerlingM/privacy-exif-cleaner/logger"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

type otelLogger struct {
	provider *sdklog.LoggerProvider
	logger   otelLog.Logger
	timeout  time.Duration
	endpoint string
	policy   otelPolicy
}

type otelPolicy struct {
	includePaths bool
}

func newOtelLogger(cfg *config.Config) (*otelLogger, error) {
	if cfg == nil {
		return nil, nil
	}
	endpoint := resolveOtelEndpoint(cfg)
	if endpoint == "" {
		return nil, nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("otel endpoint must include scheme (http or https)")
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(endpoint)}
	if len(cfg.OtelHeaders) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.OtelHeaders))
	}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.OtelServiceName),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &otelLogger{
		provider: provider,
		logger:   provider.Logger("privacy-exif-cleaner"),
		timeout:  cfg.OtelTimeout,
		endpoint: endpoint,
		policy: otelPolicy{
			includePaths: cfg.OtelExportPaths,
		},
	}, nil
}

func resolveOtelEndpoint(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	if endpoint := strings.TrimSpace(cfg.OtelEndpoint); endpoint != "" {
		return endpoint
	}
	if !cfg.OtelFromEnv {
		return ""
	}
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")); endpoint != "" {
		return endpoint
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

func (o *otelLogger) Endpoint() string {
	if o == nil {
		return ""
	}
	return o.endpoint
}

func (o *otelLogger) Emit(recordType string, payload interface{}) {
	if o == nil || o.logger == nil {
		return
	}
	safePayload := sanitizePayload(recordType, payload, o.policy)

	var record otelLog.Record
	record.SetTimestamp(time.Now())
	record.SetObservedTimestamp(time.Now())
	record.SetEventName("cleaner.record")
	record.AddAttributes(
		otelLog.String("record_type", recordType),
		otelLog.String("schema_version", SchemaVersion),
	)
	if attrs := semanticAttributes(recordType, safePayload, o.policy); len(attrs) > 0 {
		record.AddAttributes(attrs...)
	}

	value := toLogValue(safePayload)
	if value.Kind() == otelLog.KindEmpty {
		if data, err := json.Marshal(safePayload); err == nil {
			var decoded interface{}
			if err := json.Unmarshal(data, &decoded); err == nil {
				decodedValue := toLogValue(decoded)
				if decodedValue.Kind() != otelLog.KindEmpty {
					record.SetBody(decodedValue)
				} else {
					record.SetBody(otelLog.StringValue(string(data)))
				}
			} else {
				record.SetBody(otelLog.StringValue(string(data)))
			}
		}
	} else {
		record.SetBody(value)
	}

	o.logger.Emit(context.Background(), record)
}

func (o *otelLogger) Shutdown() {
	if o == nil || o.provider == nil {
		return
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := o.provider.Shutdown(ctx); err != nil {
		logger.Debugf("OTEL shutdown failed: %v", err)
	}
}

// sanitizePayload strips raw file paths from exported records unless the
// operator opted in with --otel-export-paths. The local report file is
// never sanitized.
func sanitizePayload(recordType string, payload interface{}, policy otelPolicy) interface{} {
	data := payloadToMap(payload)
	if len(data) == 0 {
		return payload
	}

	switch recordType {
	case "file":
		sanitized := cloneMap(data)
		if !policy.includePaths {
			delete(sanitized, "path")
			delete(sanitized, "backup_path")
		}
		return sanitized
	case "run":
		sanitized := cloneMap(data)
		if !policy.includePaths {
			delete(sanitized, "input_dir")
			delete(sanitized, "output_dir")
		}
		return sanitized
	default:
		return payload
	}
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func toLogValue(value interface{}) otelLog.Value {
	switch v := value.(type) {
	case nil:
		return otelLog.Value{}
	case string:
		return otelLog.StringValue(v)
	case []byte:
		return otelLog.BytesValue(v)
	case bool:
		return otelLog.BoolValue(v)
	case int:
		return otelLog.IntValue(v)
	case int64:
		return otelLog.Int64Value(v)
	case float64:
		return otelLog.Float64Value(v)
	case float32:
		return otelLog.Float64Value(float64(v))
	case map[string]interface{}:
		return otelLog.MapValue(toLogKeyValues(v)...)
	case map[string]string:
		kvs := make([]otelLog.KeyValue, 0, len(v))
		for k, val := range v {
			kvs = append(kvs, otelLog.String(k, val))
		}
		return otelLog.MapValue(kvs...)
	case []string:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, otelLog.StringValue(item))
		}
		return otelLog.SliceValue(values...)
	case []interface{}:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, toLogValue(item))
		}
		return otelLog.SliceValue(values...)
	default:
		_ = v
		return otelLog.Value{}
	}
}

func toLogKeyValues(values map[string]interface{}) []otelLog.KeyValue {
	kvs := make([]otelLog.KeyValue, 0, len(values))
	for key, value := range values {
		kvs = append(kvs, otelLog.KeyValue{Key: key, Value: toLogValue(value)})
	}
	return kvs
}

func semanticAttributes(recordType string, payload interface{}, policy otelPolicy) []otelLog.KeyValue {
	data := payloadToMap(payload)
	if len(data) == 0 {
		return nil
	}

	switch recordType {
	case "file":
		return fileSemanticAttributes(data, policy)
	case "run":
		return runSemanticAttributes(data)
	case "summary":
		return summarySemanticAttributes(data)
	default:
		return nil
	}
}

func fileSemanticAttributes(data map[string]interface{}, policy otelPolicy) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue

	path := getStringField(data, "path")
	name := getStringField(data, "name")
	if name == "" && path != "" {
		name = filepath.Base(path)
	}
	if policy.includePaths && path != "" {
		kvs = append(kvs, otelLog.String(string(semconv.FilePathKey), path))
		kvs = append(kvs, otelLog.String(string(semconv.FileDirectoryKey), filepath.Dir(path)))
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		if ext != "" {
			kvs = append(kvs, otelLog.String(string(semconv.FileExtensionKey), ext))
		}
	}
	if name != "" {
		kvs = append(kvs, otelLog.String(string(semconv.FileNameKey), name))
	}
	if size, ok := getInt64Field(data, "size"); ok {
		kvs = append(kvs, otelLog.Int64(string(semconv.FileSizeKey), size))
	}

	kvs = appendStringAttr(kvs, "cleaner.file.outcome", getStringField(data, "outcome"))
	kvs = appendStringAttr(kvs, "cleaner.file.hash", getStringField(data, "hash"))
	kvs = appendStringAttr(kvs, "cleaner.file.error", getStringField(data, "error"))
	if duration, ok := getInt64Field(data, "duration_ms"); ok {
		kvs = append(kvs, otelLog.Int64("cleaner.file.duration_ms", duration))
	}
	if findings := getSliceLength(data, "findings"); findings > 0 {
		kvs = append(kvs, otelLog.Int64("cleaner.file.findings_count", findings))
	}
	if categories := getStringSliceField(data, "categories"); len(categories) > 0 {
		values := make([]otelLog.Value, 0, len(categories))
		for _, item := range categories {
			values = append(values, otelLog.StringValue(item))
		}
		kvs = append(kvs, otelLog.KeyValue{Key: "cleaner.file.categories", Value: otelLog.SliceValue(values...)})
	}

	return kvs
}

func runSemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue

	kvs = appendStringAttr(kvs, "cleaner.run.tool_version", getStringField(data, "tool_version"))
	kvs = appendStringAttr(kvs, "cleaner.run.exiftool_version", getStringField(data, "exiftool_version"))
	kvs = appendStringAttr(kvs, "cleaner.run.engine", getStringField(data, "engine"))
	kvs = appendStringAttr(kvs, "cleaner.run.privacy_level", getStringField(data, "privacy_level"))
	kvs = appendStringAttr(kvs, "cleaner.run.start_time", getStringField(data, "start_time"))
	if dryRun, ok := data["dry_run"].(bool); ok {
		kvs = append(kvs, otelLog.Bool("cleaner.run.dry_run", dryRun))
	}

	if system := payloadToMap(data["system"]); len(system) > 0 {
		if osVersion := getStringField(system, "os_version"); osVersion != "" {
			kvs = append(kvs, otelLog.String(string(semconv.OSVersionKey), osVersion))
		}
		kvs = appendStringAttr(kvs, string(semconv.HostArchKey), getStringField(system, "arch"))
	}

	return kvs
}

func summarySemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue

	kvs = appendStringAttr(kvs, "cleaner.summary.start_time", getStringField(data, "start_time"))
	kvs = appendStringAttr(kvs, "cleaner.summary.end_time", getStringField(data, "end_time"))
	kvs = appendCountAttr(kvs, "cleaner.summary.files_scanned", data, "files_scanned")
	kvs = appendCountAttr(kvs, "cleaner.summary.files_processed", data, "files_processed")
	kvs = appendCountAttr(kvs, "cleaner.summary.files_cleaned", data, "files_cleaned")
	kvs = appendCountAttr(kvs, "cleaner.summary.files_already_clean", data, "files_already_clean")
	kvs = appendCountAttr(kvs, "cleaner.summary.files_would_clean", data, "files_would_clean")
	kvs = appendCountAttr(kvs, "cleaner.summary.files_failed", data, "files_failed")
	kvs = appendCountAttr(kvs, "cleaner.summary.total_findings", data, "total_findings")

	return kvs
}

func payloadToMap(payload interface{}) map[string]interface{} {
	switch v := payload.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return v
	case map[string]string:
		out := make(map[string]interface{}, len(v))
		for key, value := range v {
			out[key] = value
		}
		return out
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil
		}
		return decoded
	}
}

func getStringField(values map[string]interface{}, key string) string {
	value, ok := values[key]
	if !ok {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	if value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func getInt64Field(values map[string]interface{}, key string) (int64, bool) {
	value, ok := values[key]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func getStringSliceField(values map[string]interface{}, key string) []string {
	value, ok := values[key]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

func getSliceLength(values map[string]interface{}, key string) int64 {
	value, ok := values[key]
	if !ok || value == nil {
		return 0
	}
	switch v := value.(type) {
	case []interface{}:
		return int64(len(v))
	case []string:
		return int64(len(v))
	default:
		return 0
	}
}

func appendStringAttr(kvs []otelLog.KeyValue, key, value string) []otelLog.KeyValue {
	if value == "" {
		return kvs
	}
	return append(kvs, otelLog.String(key, value))
}

func appendCountAttr(kvs []otelLog.KeyValue, key string, data map[string]interface{}, field string) []otelLog.KeyValue {
	count, ok := getInt64Field(data, field)
	if !ok {
		return kvs
	}
	return append(kvs, otelLog.Int64(key, count))
}
