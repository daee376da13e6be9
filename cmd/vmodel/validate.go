package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/vmodel/internal/script"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <script>...",
		Short: "Check scripts against the script schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := validateFile(cmd, path); err != nil {
					failed++
					reportInvalid(cmd.ErrOrStderr(), path, err)
					continue
				}
				success(cmd.OutOrStdout(), "%s is valid", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scripts invalid", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}

func validateFile(cmd *cobra.Command, path string) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	// Parse also compiles templates and update commands.
	_, err = script.Parse(data)
	return err
}

func reportInvalid(w io.Writer, path string, err error) {
	var ve *script.ValidationError
	if !errors.As(err, &ve) {
		fmt.Fprintf(w, "\033[31m✗\033[0m %s: %s\n", path, err)
		return
	}
	fmt.Fprintf(w, "\033[31m✗\033[0m %s:\n", path)
	for _, p := range ve.Problems {
		fmt.Fprintf(w, "    %s\n", p)
	}
}

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(script.Schema())
			return err
		},
	}
}
