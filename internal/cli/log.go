package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// logTimeFormat prints wall-clock time with hundredths, e.g. "14:32:01.45".
const logTimeFormat = "15:04:05.00"

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      logTimeFormat,
		Level:           level,
	})
}

// progress reports how long a command's pipeline run took as one info line.
type progress struct {
	logger *log.Logger
	start  time.Time
	now    func() time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now(), now: time.Now}
}

// done logs "Applied 3 productions (12ms)".
func (p *progress) done(format string, args ...any) {
	elapsed := p.now().Sub(p.start).Round(time.Millisecond)
	p.logger.Info(fmt.Sprintf(format, args...) + " (" + elapsed.String() + ")")
}

func productions(n int) string {
	if n == 1 {
		return "1 production"
	}
	return fmt.Sprintf("%d productions", n)
}
