package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/binbuff/release-tools/internal/daemon"
	"github.com/binbuff/release-tools/internal/pipeline"
)

var watchTest bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild targets whose sources change",
	Long: `Watches the source directory of every target and reruns the build pipeline
of the targets that changed. Each rerun refreshes the target's staging
directory and log; no archive is written.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchTest, "test", "t", false, "run tests after every rebuild")
}

func runWatch(cmd *cobra.Command, args []string) error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}

	var sources []daemon.Source
	for _, tc := range o.Registry.List() {
		sources = append(sources, daemon.Source{
			Target: tc.Name(),
			Dir:    o.Layout.Source(tc.Dir()),
		})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(&daemon.Config{
		Sources: sources,
		Options: pipeline.Options{Build: true, Test: watchTest},
	}, o, o.Logger)
	return d.Run(ctx)
}
