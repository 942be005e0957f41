package cmd

import (
	"fmt"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build max31855 cli",
		RunE: func(cmd *cobra.Command, args []string) error {
			os := cmd.Flag("os").Value.String()
			arch := cmd.Flag("arch").Value.String()
			version := cmd.Flag("version").Value.String()
			crossOs, crossArch, err := crossTarget(
				cmd.Flag("board").Value.String(),
				cmd.Flag("cross-os").Value.String(),
				cmd.Flag("cross-arch").Value.String(),
			)
			if err != nil {
				return err
			}

			// if this is a native build, use go build
			if os == runtime.GOOS && arch == runtime.GOARCH {
				if crossOs != "" && crossArch != "" {
					os = crossOs
					arch = crossArch
				}
				return build.GoBuild(outputPath(crossOs, crossArch), "./cmd/max31855", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "main",
					EnableCgo:     false,
					Arch:          arch,
					OS:            os,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", os, arch), []string{"build", "--version", version, "--cross-os", crossOs, "--cross-arch", crossArch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	cmd.Flags().String("board", "", "board preset overriding cross-os/cross-arch: "+strings.Join(boardNames(), ", "))

	return cmd
}

type platform struct {
	os   string
	arch string
}

// boards the converter is usually wired to.
var boards = map[string]platform{
	"nanopi-neo": {os: "linux", arch: "arm"},
	"rpi":        {os: "linux", arch: "arm"},
	"rpi64":      {os: "linux", arch: "arm64"},
}

func boardNames() []string {
	names := make([]string, 0, len(boards))
	for name := range boards {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// crossTarget resolves the cross compilation target. A board preset wins over explicit values.
func crossTarget(board, crossOs, crossArch string) (string, string, error) {
	if board == "" {
		return crossOs, crossArch, nil
	}
	p, ok := boards[board]
	if !ok {
		return "", "", fmt.Errorf("unknown board %q, expected one of: %s", board, strings.Join(boardNames(), ", "))
	}
	return p.os, p.arch, nil
}

func outputPath(crossOs, crossArch string) string {
	if crossOs == "" || crossArch == "" {
		return "dist/max31855"
	}
	return fmt.Sprintf("dist/max31855-%s-%s", crossOs, crossArch)
}
