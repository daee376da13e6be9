package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Built   string `json:"built"`
	Go      string `json:"go"`
	OSArch  string `json:"osArch"`
}

// currentBuild fills in what ldflags left unset from the module build info,
// so `go install` binaries still report their module version.
func currentBuild() buildInfo {
	b := buildInfo{
		Version: version,
		Commit:  commit,
		Built:   date,
		Go:      runtime.Version(),
		OSArch:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && b.Commit == "none":
			b.Commit = s.Value
		case s.Key == "vcs.time" && b.Built == "unknown":
			b.Built = s.Value
		}
	}
	return b
}

func (b buildInfo) print(out io.Writer) {
	fmt.Fprintf(out, "  Version:    %s\n", b.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", b.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", b.Built)
	fmt.Fprintf(out, "  Go version: %s\n", b.Go)
	fmt.Fprintf(out, "  OS/Arch:    %s\n", b.OSArch)
}

func versionCmd() *cobra.Command {
	var (
		short  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the vmodel CLI.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			b := currentBuild()
			switch {
			case short:
				fmt.Fprintln(out, b.Version)
			case asJSON:
				return json.NewEncoder(out).Encode(b)
			default:
				b.print(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print build information as one JSON object")
	cmd.MarkFlagsMutuallyExclusive("short", "json")

	return cmd
}
