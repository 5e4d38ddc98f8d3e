package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/rcornwell/novasim/config/debugconfig"
	"github.com/rcornwell/novasim/util/logger"
)

func TestDebugRecordWrittenToFileRegardlessOfCategory(t *testing.T) {
	debugconfig.Reset()
	defer debugconfig.Reset()

	var file bytes.Buffer
	h := logger.NewHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug})
	cpuLog := slog.New(h.WithCategory(debugconfig.DebugCPU))

	cpuLog.Debug("fetch", "pc", 0o100)
	if !bytes.Contains(file.Bytes(), []byte("fetch")) {
		t.Fatalf("expected debug record written to the log file regardless of category state")
	}
}

func TestWarnRecordWrittenToFile(t *testing.T) {
	debugconfig.Reset()
	defer debugconfig.Reset()

	var file bytes.Buffer
	h := logger.NewHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug})
	log := slog.New(h)

	log.Warn("device busy timeout")
	if !bytes.Contains(file.Bytes(), []byte("device busy timeout")) {
		t.Fatalf("expected warn record in log file")
	}
}
