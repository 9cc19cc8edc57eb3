package cmd

import (
	"context"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/binbuff/release-tools/internal/configure"
	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/platform"
	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/internal/vcs"
)

var (
	configureReconfigure bool
	configureClean       bool
	configureBuild       string
	configureTest        string
	configureDir         string
	configureDebug       bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set up, build and test the C++ implementation",
	Long: `Configure manages the CMake build of the C++ implementation. On first use it
clones googletest, generates the build tree and builds and tests the Debug
configuration.

Examples:
  configure -b Release       # build and install the release configuration
  configure -t Debug         # run the debug test binary
  configure -r               # regenerate the build tree
  configure -c               # remove build output and googletest`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConfigure,
}

// ExecuteConfigure runs the configure command line.
func ExecuteConfigure() error {
	return configureCmd.ExecuteContext(context.Background())
}

func init() {
	configureCmd.Flags().BoolVarP(&configureReconfigure, "reconfigure", "r", false, "remove build and bin, then set up again")
	configureCmd.Flags().BoolVarP(&configureClean, "clean", "c", false, "remove build, bin and googletest")
	configureCmd.Flags().StringVarP(&configureBuild, "build", "b", "", "build a configuration (Debug|Release)")
	configureCmd.Flags().StringVarP(&configureTest, "test", "t", "", "test a configuration (Debug|Release)")
	configureCmd.Flags().StringVar(&configureDir, "dir", ".", "C++ project directory")
	configureCmd.Flags().BoolVar(&configureDebug, "debug", false, "log every tool invocation")
	configureCmd.MarkFlagsMutuallyExclusive("reconfigure", "clean")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	opts := configure.Options{
		Reconfigure: configureReconfigure,
		Clean:       configureClean,
	}

	var err error
	if configureBuild != "" {
		if opts.Build, err = configure.ParseConfiguration(configureBuild); err != nil {
			return eris.Wrap(err, "invalid --build")
		}
	}
	if configureTest != "" {
		if opts.Test, err = configure.ParseConfiguration(configureTest); err != nil {
			return eris.Wrap(err, "invalid --test")
		}
	}

	dir, err := filepath.Abs(configureDir)
	if err != nil {
		return eris.Wrap(err, "failed to resolve --dir")
	}
	p, err := loadProjectFrom(dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	logger := logging.New(logging.NewConsoleWriter(out), logging.FormatConsole, configureDebug)

	driver := &configure.Driver{
		Dir:       dir,
		Component: p.config.Cpp.Component,
		DepURL:    p.config.Cpp.GoogletestURL,
		Platform:  platform.Current(),
		Runner:    shell.NewExecRunner(&logger),
		Cloner:    vcs.GitCloner{},
		Out:       out,
		Logger:    &logger,
	}
	return driver.Run(cmd.Context(), opts)
}
