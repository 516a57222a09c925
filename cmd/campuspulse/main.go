// Command campuspulse runs the campus activity dashboard from a YAML file.
//
//	campuspulse serve -c campuspulse.yaml
//	campuspulse validate -c campuspulse.yaml
//	campuspulse version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Overridden with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "campuspulse",
	Short: "A live campus activity dashboard",
	Long: `campuspulse polls the campus activity API and shows who is on campus.

The projects widget ranks what active students work on in a pie chart. The
gallery widget lists every active student in an auto-scrolling grid. The
page updates itself over Server-Sent Events.

A minimal campuspulse.yaml:

  port: 8080
  widgets:
    - kind: projects
      name: Projects
      url: http://localhost:3000/on-campus/active-user-projects
    - kind: gallery
      name: Users
      url: http://localhost:3000/on-campus/active-users

then run "campuspulse serve -c campuspulse.yaml" and open
http://localhost:8080.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "campuspulse %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// cobra has printed it
		os.Exit(1)
	}
}
