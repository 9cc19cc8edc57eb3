package logging

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestConsoleWriter_Tags(t *testing.T) {
	var out bytes.Buffer
	logger := New(&out, FormatConsole, false)

	logger.Info().Str(TargetField, "C").Msg("building C implementation")
	Success(&logger).Msg("googletest cloned")
	logger.Warn().Msg("Release configuration is unavailable")
	logger.Error().Msg("C build failed")
	logger.Debug().Msg("hidden below info level")

	want := strings.Join([]string{
		"[INFO]: building C implementation",
		"[SUCCESS]: googletest cloned",
		"[WARNING]: Release configuration is unavailable",
		"[ERROR]: C build failed",
		"",
	}, "\n")
	if out.String() != want {
		t.Errorf("output =\n%q\nwant\n%q", out.String(), want)
	}
}

func TestConsoleWriter_ErrorDetails(t *testing.T) {
	var out bytes.Buffer
	logger := New(&out, FormatConsole, false)

	logger.Error().Err(errors.New("cmake .. exited with code 1")).Msg("C configuration failed")

	got := out.String()
	if !strings.HasPrefix(got, "[ERROR]: C configuration failed\n  ") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, "cmake .. exited with code 1") {
		t.Errorf("output %q is missing the error details", got)
	}
}

func TestConsoleWriter_PassesThroughPlainLines(t *testing.T) {
	var out bytes.Buffer
	w := NewConsoleWriter(&out)

	if _, err := w.Write([]byte("panic: something odd")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if out.String() != "panic: something odd\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestForward_JSONEventsFromChild(t *testing.T) {
	var child bytes.Buffer
	childLogger := New(&child, FormatJSON, false)
	childLogger.Info().Msg("packaging Java implementation")
	Success(&childLogger).Msg("Java packaged")

	var out bytes.Buffer
	if err := Forward(&child, NewConsoleWriter(&out)); err != nil {
		t.Fatalf("Forward() error = %v", err)
	}

	want := "[INFO]: packaging Java implementation\n[SUCCESS]: Java packaged\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConsoleWriter_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var out bytes.Buffer
	w := NewConsoleWriter(&out)

	var wg sync.WaitGroup
	for _, name := range []string{"C", "Cpp", "Csharp", "Java"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			logger := New(w, FormatJSON, false)
			for i := 0; i < 50; i++ {
				logger.Info().Msg("testing " + name + " implementation")
			}
		}(name)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != 200 {
		t.Fatalf("got %d lines, want 200", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "[INFO]: testing ") || !strings.HasSuffix(line, " implementation") {
			t.Errorf("garbled line %q", line)
		}
	}
}
