package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var projectPath string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "essaycoach",
	Version: Version,
	Short:   "Feedback and rewrites for application essays",
	Long: `EssayCoach reviews personal statements, motivation letters and other
application documents. It scores a draft, points at the sentences worth
rewriting and regenerates an improved version on request.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func printError(err error) {
	var cliErr *CLIError
	if errors.As(MapError(err), &cliErr) {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+cliErr.Message))
		if cliErr.Hint != "" {
			fmt.Fprintln(os.Stderr, hintStyle.Render("Hint: "+cliErr.Hint))
		}
		return
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
}

func init() {
	RootCmd.PersistentFlags().StringVar(&projectPath, "project", "", "Workspace root (defaults to the current directory)")
}
