package daemon

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/pipeline"
	"github.com/binbuff/release-tools/pkg/xos"
)

// Rebuilder reruns the pipelines of the given targets.
type Rebuilder interface {
	Rebuild(ctx context.Context, names []string, opts pipeline.Options) ([]pipeline.Result, error)
}

// Source is one watched target and its absolute source directory.
type Source struct {
	Target string
	Dir    string
}

// Config contains daemon configuration
type Config struct {
	// Sources in the order rebuilt targets are reported
	Sources []Source

	// Options are passed to every rebuild
	Options pipeline.Options

	// Quiet is how long no change may arrive before a rebuild starts
	Quiet time.Duration
}

// Daemon rebuilds targets when their sources change
type Daemon struct {
	config    *Config
	rebuilder Rebuilder
	logger    *zerolog.Logger

	// Changed targets waiting for the next rebuild
	pending   map[string]bool
	pendingMu sync.Mutex
}

// New creates a new daemon instance
func New(config *Config, rebuilder Rebuilder, logger *zerolog.Logger) *Daemon {
	if logger == nil {
		logger = logging.Nop()
	}
	if config.Quiet == 0 {
		config.Quiet = 500 * time.Millisecond
	}
	return &Daemon{
		config:    config,
		rebuilder: rebuilder,
		logger:    logger,
		pending:   make(map[string]bool),
	}
}

// Run watches the sources until ctx is done. Rebuilds run one at a time;
// changes arriving during a rebuild are picked up by the next one.
func (d *Daemon) Run(ctx context.Context) error {
	var dirs []string
	for _, src := range d.config.Sources {
		if !xos.IsDir(src.Dir) {
			d.logger.Warn().Str(logging.TargetField, src.Target).Msgf("%s does not exist, not watching it", src.Dir)
			continue
		}
		dirs = append(dirs, src.Dir)
	}
	if len(dirs) == 0 {
		return eris.New("no source directory to watch")
	}

	watcher, err := NewWatcher(DefaultWatcherConfig(dirs...))
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	d.logger.Info().Msgf("watching %d source trees, press Ctrl+C to stop", len(dirs))

	quiet := time.NewTimer(d.config.Quiet)
	quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-watcher.Events():
			target, ok := d.TargetFor(event.Path)
			if !ok {
				continue
			}
			d.logger.Debug().Str(logging.TargetField, target).Msgf("%s %s", event.Path, event.Type)
			d.pendingMu.Lock()
			d.pending[target] = true
			d.pendingMu.Unlock()
			quiet.Reset(d.config.Quiet)
		case err := <-watcher.Errors():
			d.logger.Warn().Err(err).Msg("file watcher error")
		case <-quiet.C:
			d.rebuild(ctx)
		}
	}
}

// rebuild runs the pending targets.
func (d *Daemon) rebuild(ctx context.Context) {
	names := d.takePending()
	if len(names) == 0 {
		return
	}

	d.logger.Info().Msgf("sources changed, rebuilding %s", strings.Join(names, ", "))
	if _, err := d.rebuilder.Rebuild(ctx, names, d.config.Options); err != nil {
		d.logger.Error().Err(err).Msg("rebuild failed")
	}
}

// takePending returns and clears the pending targets in source order.
func (d *Daemon) takePending() []string {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()

	var names []string
	for _, src := range d.config.Sources {
		if d.pending[src.Target] {
			names = append(names, src.Target)
		}
	}
	d.pending = make(map[string]bool)
	return names
}

// TargetFor returns the target whose source directory contains path.
func (d *Daemon) TargetFor(path string) (string, bool) {
	for _, src := range d.config.Sources {
		rel, err := filepath.Rel(src.Dir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return src.Target, true
	}
	return "", false
}
