package cmd

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/binbuff/release-tools/internal/builder"
	"github.com/binbuff/release-tools/internal/config"
	"github.com/binbuff/release-tools/internal/logging"
	"github.com/binbuff/release-tools/internal/pipeline"
	"github.com/binbuff/release-tools/internal/platform"
	"github.com/binbuff/release-tools/internal/shell"
	"github.com/binbuff/release-tools/internal/vcs"
	"github.com/binbuff/release-tools/internal/workspace"
)

var (
	pipelineRoot    string
	pipelineVersion string
	pipelineBuild   bool
	pipelineTest    bool
	pipelineEvents  string
)

// pipelineCmd runs a single target. pack starts one of these per target.
var pipelineCmd = &cobra.Command{
	Use:    "pipeline <target>",
	Short:  "Run the pipeline of one target",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runPipeline,
}

func init() {
	pipelineCmd.Flags().StringVar(&pipelineRoot, "root", ".", "project root")
	pipelineCmd.Flags().StringVar(&pipelineVersion, "version", "", "version embedded in the artifact names")
	pipelineCmd.Flags().BoolVar(&pipelineBuild, "build", false, "rebuild before packaging or testing")
	pipelineCmd.Flags().BoolVar(&pipelineTest, "test", false, "run tests before packaging")
	pipelineCmd.Flags().StringVar(&pipelineEvents, "events", string(logging.FormatConsole), "event format (console|json)")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	format := logging.Format(pipelineEvents)
	if format != logging.FormatConsole && format != logging.FormatJSON {
		return eris.Errorf("unknown event format %q (choose from console, json)", pipelineEvents)
	}

	root, err := filepath.Abs(pipelineRoot)
	if err != nil {
		return eris.Wrap(err, "failed to resolve --root")
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadDir(root)
	}
	if err != nil {
		return err
	}
	if pipelineVersion != "" {
		cfg.Version = pipelineVersion
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	tc, err := builder.NewRegistry(cfg, vcs.GitCloner{}).Get(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == logging.FormatConsole {
		out = logging.NewConsoleWriter(out)
	}
	logger := logging.New(out, format, debug)

	layout := workspace.NewLayout(root, cfg.ReleaseDir)
	if err := layout.Create([]string{tc.Name()}); err != nil {
		return err
	}

	env := builder.Env{
		Root:     root,
		StageDir: layout.StageDir(tc.Name()),
		Version:  cfg.Version,
		Platform: platform.Current(),
		Runner:   shell.NewExecRunner(&logger),
		Logger:   &logger,
	}
	result := pipeline.Run(cmd.Context(), tc, env, layout.LogFile(tc.LogName()), pipeline.Options{
		Build: pipelineBuild,
		Test:  pipelineTest,
	})
	if result.ExitCode != 0 {
		return &exitError{code: result.ExitCode}
	}
	return nil
}

