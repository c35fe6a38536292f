package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openpad/openpad/config"
	"github.com/openpad/openpad/logger"
	"github.com/openpad/openpad/scad"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Compile a local OpenSCAD file into a model artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		log := logger.Init(cfg.LogLevel)

		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := scad.ParseFormat(formatFlag)
		if err != nil {
			return err
		}

		inputPath := args[0]
		source, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("error reading %s: %w", inputPath, err)
		}

		compiler := scad.NewCompiler(cfg.OpenSCADBinary, cfg.MaxConcurrentCompiles, cfg.CompileTimeout, log)
		artifact, err := compiler.Compile(cmd.Context(), string(source), format)
		if err != nil {
			var compileErr *scad.CompileError
			if errors.As(err, &compileErr) {
				return fmt.Errorf("compile failed:\n%s", compileErr.Diagnostic)
			}
			return err
		}

		outputPath, _ := cmd.Flags().GetString("output")
		if outputPath == "" {
			outputPath = strings.TrimSuffix(inputPath, ".scad") + "." + string(format)
		}
		if err := os.WriteFile(outputPath, artifact, 0o644); err != nil {
			return fmt.Errorf("error writing %s: %w", outputPath, err)
		}

		fmt.Printf("wrote %s (%d bytes)\n", outputPath, len(artifact))
		return nil
	},
}

func init() {
	renderCmd.Flags().StringP("format", "f", "stl", "Export format: stl, amf, or 3mf")
	renderCmd.Flags().StringP("output", "o", "", "Output path (defaults to the input name with the format extension)")
}
