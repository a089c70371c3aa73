package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jward/bonsai"
	"github.com/jward/bonsai/internal/parse"
	"github.com/jward/bonsai/internal/report"
	"github.com/jward/bonsai/internal/sink"
)

var (
	flagOutputType string
	flagOutputFile string
	flagMode       string
	flagWithReport bool
	flagPretty     bool
)

var (
	errBinaryStdout = errors.New("binary output requires --output-file")
	errBinaryReport = errors.New("--with-report cannot be combined with binary output")
)

var compressCmd = &cobra.Command{
	Use:   "compress <file>",
	Short: "Compress one Python file",
	Long:  "Parses a Python file, builds its reduced tree and writes it as JSON or as a binary snapshot.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompress,
}

func init() {
	compressCmd.Flags().StringVarP(&flagOutputType, "output-type", "O", "", "output type: json|binary (default from config)")
	compressCmd.Flags().StringVarP(&flagOutputFile, "output-file", "o", sink.Stdout, "output file, - for stdout")
	compressCmd.Flags().StringVarP(&flagMode, "mode", "m", "", "compile mode: exec|eval|single (default from config)")
	compressCmd.Flags().BoolVar(&flagWithReport, "with-report", false, "print the node and entity comparison")
	compressCmd.Flags().BoolVar(&flagPretty, "pretty", false, "indent JSON output")
}

func runCompress(cmd *cobra.Command, args []string) error {
	outputType := cfg.Output.Format
	if flagOutputType != "" {
		outputType = flagOutputType
	}
	modeName := cfg.Parse.Mode
	if flagMode != "" {
		modeName = flagMode
	}
	pretty := flagPretty || cfg.Output.Pretty

	switch outputType {
	case "json":
	case "binary":
		if flagOutputFile == "" || flagOutputFile == sink.Stdout {
			return outputError(cmd, "compress", errBinaryStdout)
		}
		if flagWithReport {
			return outputError(cmd, "compress", errBinaryReport)
		}
	default:
		return outputError(cmd, "compress", fmt.Errorf("invalid output type %q: must be json or binary", outputType))
	}

	mode, err := parse.ParseMode(modeName)
	if err != nil {
		return outputError(cmd, "compress", err)
	}

	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError(cmd, "compress", err)
	}

	c, err := bonsai.NewCompressor(compressorOptions(mode)...)
	if err != nil {
		return outputError(cmd, "compress", err)
	}
	res, err := c.CompressFile(context.Background(), path)
	if err != nil {
		return outputError(cmd, "compress", err)
	}

	write := func(w io.Writer) error {
		if outputType == "binary" {
			return sink.WriteBinary(w, res.Tree)
		}
		return sink.WriteJSON(w, res.Tree.Document(), pretty)
	}

	toStdout := flagOutputFile == "" || flagOutputFile == sink.Stdout
	if toStdout {
		err = write(cmd.OutOrStdout())
	} else {
		err = sink.WriteFile(flagOutputFile, write)
	}
	if err != nil {
		return outputError(cmd, "compress", err)
	}
	logger.Debug("compressed", "path", path, "output", flagOutputFile, "type", outputType)

	if flagWithReport {
		// The document owns stdout when it is written there.
		w := cmd.OutOrStdout()
		if toStdout {
			w = cmd.ErrOrStderr()
		}
		return report.RenderComparison(w, res.Comparison, !color.NoColor)
	}
	return nil
}
