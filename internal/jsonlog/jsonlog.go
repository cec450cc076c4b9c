package jsonlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

const (
	InfoLevel Level = iota
	ErrorLevel
	FatalLevel
	OffLevel
)

type Level int8

type Logger struct {
	out   io.Writer
	level Level
	mu    sync.Mutex
	exit  func(code int)
}

func (lv Level) String() string {
	switch lv {
	case InfoLevel:
		return "INFO"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	case OffLevel:
		return "OFF"
	default:
		return ""
	}
}

// ParseLevel maps a flag value such as "info" or "ERROR" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return InfoLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	case "off":
		return OffLevel, nil
	}

	return InfoLevel, fmt.Errorf("jsonlog: unknown level %q", s)
}

func New(out io.Writer, level Level) *Logger {
	return &Logger{
		out:   out,
		level: level,
		exit:  os.Exit,
	}
}

func (l *Logger) Info(message string, properties map[string]string) {
	l.print(InfoLevel, message, properties)
}

func (l *Logger) Error(err error, properties map[string]string) {
	l.print(ErrorLevel, err.Error(), properties)
}

func (l *Logger) FatalErr(err error, properties map[string]string) {
	l.print(FatalLevel, err.Error(), properties)
	l.exit(1)
}

func (l *Logger) print(level Level, message string, properties map[string]string) (int, error) {
	if level < l.level {
		return 0, nil
	}

	aux := struct {
		Level      string            `json:"level"`
		Time       string            `json:"time"`
		Message    string            `json:"message"`
		Properties map[string]string `json:"properties,omitempty"`
		Trace      string            `json:"trace,omitempty"`
	}{
		Level:      level.String(),
		Time:       time.Now().UTC().Format(time.RFC3339),
		Message:    message,
		Properties: properties,
	}

	if level >= ErrorLevel {
		aux.Trace = string(debug.Stack())
	}

	line, err := json.Marshal(aux)
	if err != nil {
		line = []byte(ErrorLevel.String() + ": unable to marshal log message: " + err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Write(append(line, '\n'))
}

// Write lets the logger back an http.Server ErrorLog.
func (l *Logger) Write(b []byte) (int, error) {
	return l.print(ErrorLevel, strings.TrimSuffix(string(b), "\n"), nil)
}
