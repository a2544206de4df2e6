package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown output format")

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

type tablePrinter interface {
	TablePrint(w io.Writer) error
}

// openOutput returns the command's output stream for "-" or a newly created file
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create output, %w", err)
	}
	return f, f.Close, nil
}

func writeOutput(w io.Writer, format string, v tablePrinter) error {
	switch format {
	case formatTable, "":
		return v.TablePrint(w)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%q, %w", format, ErrUnknownFormat)
	}
}

func (a *app) write(cmd *cobra.Command, c *Config, v tablePrinter) error {
	w, closeFn, err := openOutput(cmd, c.Output)
	if err != nil {
		return err
	}
	if err := writeOutput(w, c.Format, v); err != nil {
		closeFn()
		return fmt.Errorf("unable to write output, %w", err)
	}
	return closeFn()
}
