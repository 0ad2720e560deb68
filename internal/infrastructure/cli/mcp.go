package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/essaycoach/internal/infrastructure/mcp"
)

var (
	mcpTransport string
	mcpAddr      string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the EssayCoach MCP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, cleanup, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer cleanup()

		inframcp.Version, inframcp.BuildCommit, inframcp.BuildDate = Version, Commit, Date
		server := inframcp.NewServer(services)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		switch strings.ToLower(mcpTransport) {
		case "stdio", "":
			err = server.ServeStdio(ctx)
		case "http":
			err = server.ServeHTTP(ctx, mcpAddr)
		default:
			return fmt.Errorf("unsupported transport: %s", mcpTransport)
		}
		return ignoreCanceled(err)
	},
}

func init() {
	mcpCmd.Flags().StringVar(&mcpTransport, "transport", "stdio", "Transport to use (stdio, http)")
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", ":8080", "Address for the http transport")
	RootCmd.AddCommand(mcpCmd)
}
