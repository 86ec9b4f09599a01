package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

var (
	logOnce sync.Once
	std     *log.Logger
)

// Logger returns the process-wide logger. Access, audit and error lines
// all go through it as single-line JSON on stdout.
func Logger() *log.Logger {
	logOnce.Do(func() {
		std = log.New(os.Stdout, "", 0)
	})
	return std
}

// LogRequest emits one access-log line. Entries are flat maps so the
// middleware can attach request-scoped fields without a schema change.
func LogRequest(entry map[string]any) {
	line, err := json.Marshal(entry)
	if err != nil {
		Logger().Printf(`{"level":"error","msg":"dropped unloggable access entry","error":%q}`, err.Error())
		return
	}
	Logger().Println(string(line))
}
