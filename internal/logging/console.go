package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/binbuff/release-tools/internal/ui"
)

// ConsoleWriter renders zerolog JSON events as "[TAG]: message" lines. It is
// safe for concurrent use; the lock keeps lines from interleaving when
// several pipelines report at once.
type ConsoleWriter struct {
	out    io.Writer
	styles *ui.Styles
	buffer strings.Builder
	lock   sync.Mutex
}

// NewConsoleWriter creates a writer whose color profile is detected from out.
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	return &ConsoleWriter{
		out:    out,
		styles: ui.NewStyles(lipgloss.NewRenderer(out)),
	}
}

// Write renders one event. Input that is not a JSON event is passed through
// as-is.
func (w *ConsoleWriter) Write(p []byte) (int, error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	if err := d.Decode(&evt); err != nil {
		if _, err := w.out.Write(p); err != nil {
			return 0, err
		}
		if len(p) > 0 && p[len(p)-1] != '\n' {
			if _, err := io.WriteString(w.out, "\n"); err != nil {
				return 0, err
			}
		}
		return len(p), nil
	}

	tag := eventTag(evt)
	msg, _ := evt["message"].(string)

	w.buffer.Reset()
	w.buffer.WriteString(w.styles.Tag(tag).Render("[" + tag + "]:"))
	w.buffer.WriteString(" ")
	w.buffer.WriteString(w.styles.Message.Render(msg))

	if details, ok := evt["error"].(string); ok && details != "" {
		w.buffer.WriteString("\n  ")
		w.buffer.WriteString(w.styles.Detail.Render(details))
	}
	w.buffer.WriteString("\n")

	if _, err := io.WriteString(w.out, w.buffer.String()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func eventTag(evt map[string]interface{}) string {
	switch evt["level"] {
	case "fatal", "panic", "error":
		return ui.TagError
	case "warn":
		return ui.TagWarning
	case "debug", "trace":
		return ui.TagDebug
	}

	if success, ok := evt[SuccessField].(bool); ok && success {
		return ui.TagSuccess
	}
	return ui.TagInfo
}

// Forward copies newline-delimited events from r into w, one Write per line.
// It returns when r is exhausted.
func Forward(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := append(scanner.Bytes(), '\n')
		if _, err := w.Write(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}
