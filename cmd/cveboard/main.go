// Command cveboard serves the CVE dashboard and inspects its route table.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	cverrors "github.com/vango-dev/cveboard/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cverrors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "cveboard",
		Short: "CVE dashboard server",
		Long: `cveboard serves the CVE dashboard.

Routes:
  /           Home
  /cve-list   CVE list
  /analysis   Analysis
  /cve/:id    CVE detail

Configuration is read from cveboard.json (or cveboard.toml) in the config
directory, or the nearest parent of the working directory holding one.
BASE_URL and CVEBOARD_PORT override the file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "Directory containing cveboard.json (default: nearest parent with one)")

	rootCmd.AddCommand(
		serveCmd(&configDir),
		routesCmd(),
		matchCmd(&configDir),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
