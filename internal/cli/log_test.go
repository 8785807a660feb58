package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestProgressDone(t *testing.T) {
	tests := []struct {
		n       int
		elapsed time.Duration
		want    string
	}{
		{0, 0, "Applied 0 productions (0s)"},
		{1, 1234 * time.Microsecond, "Applied 1 production (1ms)"},
		{3, 12*time.Millisecond + 600*time.Microsecond, "Applied 3 productions (13ms)"},
	}

	line := regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} INFO `)
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			p := &progress{
				logger: newLogger(&buf, log.InfoLevel),
				start:  start,
				now:    func() time.Time { return start.Add(tt.elapsed) },
			}
			p.done("Applied %s", productions(tt.n))

			got := strings.TrimSpace(buf.String())
			if !line.MatchString(got) {
				t.Errorf("log line %q lacks timestamp and level prefix", got)
			}
			if !strings.HasSuffix(got, tt.want) {
				t.Errorf("log line = %q, want suffix %q", got, tt.want)
			}
		})
	}
}

func TestApplyLogging(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"default", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFixture(t)
			var logs bytes.Buffer
			c := New(&logs, log.InfoLevel)
			c.Out = &bytes.Buffer{}

			args := []string{"apply", filepath.Join(dir, "A.dot"), filepath.Join(dir, "expand.toml"), "--json"}
			if tt.verbose {
				args = append([]string{"--verbose"}, args...)
			}
			root := c.RootCommand()
			root.SetArgs(args)
			if err := root.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("apply error = %v", err)
			}

			out := logs.String()
			if !strings.Contains(out, "Applied 1 production (") {
				t.Errorf("missing summary line in logs:\n%s", out)
			}
			if got := strings.Contains(out, "DEBU"); got != tt.wantDebug {
				t.Errorf("debug output = %v, want %v; logs:\n%s", got, tt.wantDebug, out)
			}
		})
	}
}
