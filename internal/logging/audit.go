package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditEventType names one entry of the run audit trail.
type AuditEventType string

const (
	AuditRunStart   AuditEventType = "run_start"
	AuditBaseline   AuditEventType = "baseline"
	AuditCommitted  AuditEventType = "attempt_committed"
	AuditReverted   AuditEventType = "attempt_reverted"
	AuditSkipped    AuditEventType = "attempt_skipped"
	AuditRoundEnd   AuditEventType = "round_end"
	AuditRunEnd     AuditEventType = "run_end"
	AuditTreeChange AuditEventType = "tree_modified"
)

// AuditEvent is one JSON line of the audit trail.
type AuditEvent struct {
	Type       AuditEventType
	Strategy   string
	File       string
	Positions  []int
	Round      int
	DurationMs int64
	Message    string
}

var (
	auditMu     sync.Mutex
	auditLogger *zap.Logger
	auditFile   *os.File
)

// Audit appends e to <dir>/<date>_audit.jsonl. No-op outside debug mode.
func Audit(e AuditEvent) {
	l := auditSink()
	if l == nil {
		return
	}
	fields := []zap.Field{zap.String("event", string(e.Type))}
	if e.Strategy != "" {
		fields = append(fields, zap.String("strategy", e.Strategy))
	}
	if e.File != "" {
		fields = append(fields, zap.String("file", e.File))
	}
	if len(e.Positions) > 0 {
		fields = append(fields, zap.Ints("positions", e.Positions))
	}
	if e.Round > 0 {
		fields = append(fields, zap.Int("round", e.Round))
	}
	if e.DurationMs > 0 {
		fields = append(fields, zap.Int64("duration_ms", e.DurationMs))
	}
	l.Info(e.Message, fields...)
}

func auditSink() *zap.Logger {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()
	if auditLogger != nil {
		return auditLogger
	}

	configMu.RLock()
	dir, id := config.Dir, runID
	configMu.RUnlock()

	path := filepath.Join(dir, fmt.Sprintf("%s_audit.jsonl", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open audit log %s: %v\n", path, err)
		return nil
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.EpochMillisTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(f), zapcore.InfoLevel)
	auditLogger = zap.New(core)
	if id != "" {
		auditLogger = auditLogger.With(zap.String("run_id", id))
	}
	auditFile = f
	return auditLogger
}

func closeAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditLogger != nil {
		_ = auditLogger.Sync()
		auditLogger = nil
	}
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}
