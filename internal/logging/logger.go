// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"lovmig/cli/internal/xdg"
)

// VerboseEnv switches debug logging to stderr when set to "1".
const VerboseEnv = "LOVMIG_VERBOSE"

var (
	writerMu  sync.Mutex
	logWriter *lumberjack.Logger
)

// Options controls where and how much the CLI logs.
type Options struct {
	// Level is one of logrus' level names; empty means "info".
	Level string
	// Verbose forces debug level and mirrors output to stderr.
	Verbose bool
	// Dir overrides the log directory; empty means the XDG state dir.
	Dir string
}

// Formatter renders entries as
// [2025-12-23 20:14:04] [info ] message key=value
// and masks secrets in both message and fields.
type Formatter struct{}

// Format renders a single log entry.
func (f *Formatter) Format(entry *log.Entry) ([]byte, error) {
	buffer := entry.Buffer
	if buffer == nil {
		buffer = &bytes.Buffer{}
	}

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}

	var fields []string
	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, fmt.Sprintf("%s=%v", k, entry.Data[k]))
		}
	}

	line := fmt.Sprintf("[%s] [%-5s] %s", entry.Time.Format("2006-01-02 15:04:05"), level, strings.TrimRight(entry.Message, "\r\n"))
	if len(fields) > 0 {
		line += " " + strings.Join(fields, " ")
	}
	buffer.WriteString(Mask(line))
	buffer.WriteByte('\n')
	return buffer.Bytes(), nil
}

// Setup configures the shared logrus logger. Log lines go to a rotating file
// under the state directory; in verbose mode they are mirrored to stderr.
// When no writable directory is available logging falls back to stderr only.
func Setup(opts Options) error {
	writerMu.Lock()
	defer writerMu.Unlock()

	log.SetFormatter(&Formatter{})

	level, err := log.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil || opts.Level == "" {
		level = log.InfoLevel
	}
	verbose := opts.Verbose || os.Getenv(VerboseEnv) == "1"
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	dir := opts.Dir
	if dir == "" {
		if dir, err = xdg.StateDir(); err != nil {
			log.SetOutput(os.Stderr)
			return fmt.Errorf("logging: resolve state dir: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		log.SetOutput(os.Stderr)
		return fmt.Errorf("logging: create log directory: %w", err)
	}

	if logWriter != nil {
		_ = logWriter.Close()
	}
	logWriter = &lumberjack.Logger{
		Filename:   filepath.Join(dir, "lovmig.log"),
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     30,
	}

	var out io.Writer = logWriter
	if verbose {
		out = io.MultiWriter(logWriter, os.Stderr)
	}
	log.SetOutput(out)
	log.RegisterExitHandler(Close)
	return nil
}

// Close flushes and closes the rotating log file, if any.
func Close() {
	writerMu.Lock()
	defer writerMu.Unlock()
	if logWriter != nil {
		_ = logWriter.Close()
		logWriter = nil
	}
}
