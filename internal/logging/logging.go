package logging

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

var (
	mu     sync.RWMutex
	logger = log.New(os.Stdout, "", 0)
	loc    = time.UTC
)

// SetOutput redirects log lines, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// SetLocation sets the timezone used for the ts field.
func SetLocation(l *time.Location) {
	if l == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	loc = l
}

// Location returns the configured timezone.
func Location() *time.Location {
	mu.RLock()
	defer mu.RUnlock()
	return loc
}

// Info writes an info-level JSON line.
func Info(component, event string, fields map[string]any) {
	write("info", component, event, nil, fields)
}

// Warn writes a warn-level JSON line.
func Warn(component, event string, fields map[string]any) {
	write("warn", component, event, nil, fields)
}

// Error writes an error-level JSON line with error_message set from err.
func Error(component, event string, err error, fields map[string]any) {
	write("error", component, event, err, fields)
}

// JSON writes data as-is, adding ts and level when missing. Level defaults to
// error when status is "error".
func JSON(data map[string]any) {
	mu.RLock()
	l := loc
	mu.RUnlock()

	if _, ok := data["ts"]; !ok {
		data["ts"] = time.Now().In(l).Format(time.RFC3339Nano)
	}
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		logger.Printf(`{"level":"error","msg":"log marshal failed","error_message":%q}`, err.Error())
		return
	}
	logger.Println(string(b))
}

func write(level, component, event string, err error, fields map[string]any) {
	entry := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = level
	entry["component"] = component
	entry["event"] = event
	if err != nil {
		entry["error_message"] = err.Error()
	}
	JSON(entry)
}
