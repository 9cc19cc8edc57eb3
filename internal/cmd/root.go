package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/binbuff/release-tools/internal/builder"
	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/orchestrator"
	"github.com/binbuff/release-tools/internal/platform"
	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/internal/vcs"
	"github.com/binbuff/release-tools/internal/workspace"
)

const cliVersion = "0.1.0"

var (
	packTest  bool
	packBuild bool
	packClean bool

	configPath string
	inProcess  bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "pack",
	Short: "Build, test and package every binbuff implementation",
	Long: `Pack runs the C, C++, C# and Java pipelines of binbuff in parallel and
collects their artifacts into one versioned archive.

Every pipeline packages the existing release build. Use --build to rebuild
first and --test to run the test suites before packaging. Logs of each
toolchain are written to release/log.

Examples:
  pack                # package existing builds
  pack -b -t          # rebuild, test and package everything
  pack -c             # remove all build output`,
	Version:       cliVersion,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPack,
}

// Execute runs the pack command line.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.Flags().BoolVarP(&packTest, "test", "t", false, "run tests before packaging")
	rootCmd.Flags().BoolVarP(&packBuild, "build", "b", false, "rebuild before packaging or testing")
	rootCmd.Flags().BoolVarP(&packClean, "clean", "c", false, "clean all build files")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to pack.yaml (default: searched from the current directory)")
	rootCmd.PersistentFlags().BoolVar(&inProcess, "in-process", false, "run pipelines on goroutines instead of child processes")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log every tool invocation")

	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(watchCmd)
}

func runPack(cmd *cobra.Command, args []string) error {
	o, err := newOrchestrator()
	if err != nil {
		return err
	}

	_, err = o.Run(cmd.Context(), orchestrator.Mode{
		Test:  packTest,
		Build: packBuild,
		Clean: packClean,
	})
	return err
}

// newOrchestrator wires an orchestrator for the current project. Child
// events and local events share one console writer.
func newOrchestrator() (*orchestrator.Orchestrator, error) {
	p, err := loadProject()
	if err != nil {
		return nil, err
	}

	console := logging.NewConsoleWriter(os.Stdout)
	logger := logging.New(console, logging.FormatJSON, debug)
	runner := shell.NewExecRunner(&logger)

	var spawner orchestrator.Spawner = orchestrator.InProcess
	if !inProcess {
		exe, err := os.Executable()
		if err != nil {
			return nil, err
		}
		spawner = &orchestrator.ProcessSpawner{
			Executable: exe,
			Runner:     runner,
			Events:     console,
			Stderr:     os.Stderr,
			Debug:      debug,
		}
	}

	return &orchestrator.Orchestrator{
		Config:     p.config,
		Layout:     workspace.NewLayout(p.root, p.config.ReleaseDir),
		Registry:   builder.NewRegistry(p.config, vcs.GitCloner{}),
		Spawner:    spawner,
		Runner:     runner,
		Platform:   platform.Current(),
		ConfigPath: p.configPath,
		Out:        console,
		Logger:     &logger,
		Progress:   os.Stderr,
	}, nil
}
