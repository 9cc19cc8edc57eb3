package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/binbuff/release-tools/internal/config"
	"github.com/binbuff/release-tools/internal/workspace"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate pack.yaml configuration",
	Long: `Validates pack.yaml against the JSON Schema and checks the rules the schema
cannot express, such as the version format and overlapping directories.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return eris.Wrap(err, "failed to get current directory")
		}
		root, err := workspace.FindRoot(cwd)
		if err != nil {
			return err
		}
		path = filepath.Join(root, config.FileName)
	}
	return validateFile(cmd, path)
}

func validateFile(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return eris.Errorf("%s not found", config.FileName)
		}
		return eris.Wrapf(err, "failed to read %s", path)
	}

	fmt.Fprintf(out, "Validating %s...\n", path)

	var schemaErr *config.SchemaError
	if err := config.ValidateDocument(data); errors.As(err, &schemaErr) {
		fmt.Fprintln(out, "\nValidation failed with the following errors:")
		fmt.Fprintln(out)
		for i, v := range schemaErr.Violations {
			fmt.Fprintf(out, "%d. %s\n", i+1, v)
		}
		return eris.Errorf("validation failed with %d errors", len(schemaErr.Violations))
	} else if err != nil {
		return err
	}

	if _, err := config.Load(path); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s is valid\n", config.FileName)
	return nil
}
