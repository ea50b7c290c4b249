package observe

import (
	"bytes"
	"context"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

// TestLogger_IncludesOperationFields verifies operation fields are present in log output.
func TestLogger_IncludesOperationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := OpMeta{
		Operation: "GetAccounts",
		Shape:     "basic",
	}

	opLogger := logger.WithOperation(meta)
	opLogger.Info(context.Background(), "test message")

	output := buf.String()

	// Parse JSON output
	var logEntry map[string]any
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, output)
	}

	// Verify operation fields
	if v, ok := logEntry["op.name"].(string); !ok || v != "GetAccounts" {
		t.Errorf("expected op.name='GetAccounts', got %v", logEntry["op.name"])
	}
	if v, ok := logEntry["op.shape"].(string); !ok || v != "basic" {
		t.Errorf("expected op.shape='basic', got %v", logEntry["op.shape"])
	}
}

// TestLogger_ShapeOmittedWhenEmpty verifies op.shape is absent without a shape.
func TestLogger_ShapeOmittedWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	opLogger := logger.WithOperation(OpMeta{Operation: "GetCategories"})
	opLogger.Info(context.Background(), "test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if _, ok := logEntry["op.shape"]; ok {
		t.Errorf("expected no op.shape field, got %v", logEntry["op.shape"])
	}
	if v, ok := logEntry["op.name"].(string); !ok || v != "GetCategories" {
		t.Errorf("expected op.name='GetCategories', got %v", logEntry["op.name"])
	}
}

// TestLogger_IncludesDuration verifies duration_ms field is present.
func TestLogger_IncludesDuration(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := OpMeta{Operation: "GetTransactions"}
	opLogger := logger.WithOperation(meta)

	opLogger.Info(context.Background(), "test message",
		Field{Key: "duration_ms", Value: 50.5},
	)

	output := buf.String()

	var logEntry map[string]any
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["duration_ms"].(float64); !ok || v != 50.5 {
		t.Errorf("expected duration_ms=50.5, got %v", logEntry["duration_ms"])
	}
}

// TestLogger_ErrorLevel verifies error log level and error field.
func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := OpMeta{Operation: "GetBudgets"}
	opLogger := logger.WithOperation(meta)

	opLogger.Error(context.Background(), "upstream call failed",
		Field{Key: "error", Value: "connection timeout"},
	)

	output := buf.String()

	var logEntry map[string]any
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	// Verify level
	if v, ok := logEntry["level"].(string); !ok || v != "error" {
		t.Errorf("expected level='error', got %v", logEntry["level"])
	}

	// Verify error field
	if v, ok := logEntry["error"].(string); !ok || v != "connection timeout" {
		t.Errorf("expected error='connection timeout', got %v", logEntry["error"])
	}
}

// TestLogger_InfoLevel verifies info log level.
func TestLogger_InfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := OpMeta{Operation: "GetTags"}
	opLogger := logger.WithOperation(meta)

	opLogger.Info(context.Background(), "operation complete")

	output := buf.String()

	var logEntry map[string]any
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["level"].(string); !ok || v != "info" {
		t.Errorf("expected level='info', got %v", logEntry["level"])
	}
}

// TestLogger_ParamsRedactedByDefault verifies request parameters are not logged.
func TestLogger_ParamsRedactedByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := OpMeta{Operation: "GetTransactions"}
	opLogger := logger.WithOperation(meta)

	opLogger.Info(context.Background(), "upstream call completed",
		Field{Key: "params", Value: map[string]any{"account_ids": []string{"acct-8841"}}},
	)

	output := buf.String()

	// The raw account identifier should NOT appear
	if strings.Contains(output, "acct-8841") {
		t.Error("raw params should be redacted, but found in output")
	}
	if !strings.Contains(output, "[REDACTED]") {
		t.Error("expected [REDACTED] marker in output")
	}
}

// TestLogger_AccountFieldsRedacted verifies balance and account_number are redacted.
func TestLogger_AccountFieldsRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	opLogger := logger.WithOperation(OpMeta{Operation: "GetAccounts"})
	opLogger.Info(context.Background(), "account refreshed",
		Field{Key: "balance", Value: 10543.22},
		Field{Key: "account_number", Value: "000123456789"},
	)

	output := buf.String()
	if strings.Contains(output, "10543.22") {
		t.Error("balance should be redacted, but found in output")
	}
	if strings.Contains(output, "000123456789") {
		t.Error("account_number should be redacted, but found in output")
	}

	var logEntry map[string]any
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}
	if v, ok := logEntry["balance"].(string); !ok || v != "[REDACTED]" {
		t.Errorf("expected balance='[REDACTED]', got %v", logEntry["balance"])
	}
}

// TestLogger_LevelFiltering verifies log level filtering.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	meta := OpMeta{Operation: "GetMerchants"}
	opLogger := logger.WithOperation(meta)

	// Info should be filtered out
	opLogger.Info(context.Background(), "info message")

	output := buf.String()
	if strings.Contains(output, "info message") {
		t.Error("info message should be filtered when level is warn")
	}

	// Warn should pass through
	opLogger.Warn(context.Background(), "warn message")

	output = buf.String()
	if !strings.Contains(output, "warn message") {
		t.Error("warn message should pass through when level is warn")
	}
}

// TestLogger_DebugLevel verifies debug level filtering.
func TestLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("debug", &buf)

	meta := OpMeta{Operation: "GetInstitutions"}
	opLogger := logger.WithOperation(meta)

	opLogger.Debug(context.Background(), "debug message")

	output := buf.String()

	var logEntry map[string]any
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["level"].(string); !ok || v != "debug" {
		t.Errorf("expected level='debug', got %v", logEntry["level"])
	}
}

// TestLogger_WarnLevel verifies warn level.
func TestLogger_WarnLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := OpMeta{Operation: "GetCashflow"}
	opLogger := logger.WithOperation(meta)

	opLogger.Warn(context.Background(), "warning message")

	output := buf.String()

	var logEntry map[string]any
	if err := json.Unmarshal([]byte(output), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["level"].(string); !ok || v != "warn" {
		t.Errorf("expected level='warn', got %v", logEntry["level"])
	}
}
