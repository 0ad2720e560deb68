package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/editorws"
	inframcp "github.com/felixgeelhaar/essaycoach/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/sse"
	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/wiring"
)

var (
	serveAddr    string
	serveMCP     string
	serveMCPAddr string
)

// newServeMux routes the editor websocket, the event stream and a health check.
func newServeMux(services *wiring.AppServices) *http.ServeMux {
	stream := sse.NewSSEHandler()
	services.Dispatcher.Register(stream.Registration())

	mux := http.NewServeMux()
	mux.Handle("/editor", editorws.NewHandler(services, services.Logger))
	mux.Handle("/events", stream)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve live editor sessions over a websocket",
	Long: `Serve the live editor websocket at /editor, dispatched events as
Server-Sent Events at /events and a health check at /health. With --mcp the
feedback tools are also exposed to MCP clients over stdio or HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, cleanup, err := loadServicesForCurrentDir()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, services, serveAddr, serveMCP, serveMCPAddr, func(addr string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Editor websocket listening on ws://%s/editor\n", addr)
		})
	},
}

func runServe(ctx context.Context, services *wiring.AppServices, addr, mcpMode, mcpAddr string, ready func(string)) error {
	switch strings.ToLower(mcpMode) {
	case "", "stdio", "http":
	default:
		return NewCLIError("unsupported MCP transport: "+mcpMode, "Use --mcp stdio or --mcp http", nil)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:           newServeMux(services),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	switch strings.ToLower(mcpMode) {
	case "stdio":
		mcpServer := inframcp.NewServer(services)
		g.Go(func() error { return ignoreCanceled(mcpServer.ServeStdio(gctx)) })
	case "http":
		mcpServer := inframcp.NewServer(services)
		g.Go(func() error { return ignoreCanceled(mcpServer.ServeHTTP(gctx, mcpAddr)) })
	}

	if ready != nil {
		ready(ln.Addr().String())
	}
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8765", "Address for the editor websocket")
	serveCmd.Flags().StringVar(&serveMCP, "mcp", "", "Also serve MCP tools (stdio, http)")
	serveCmd.Flags().StringVar(&serveMCPAddr, "mcp-addr", ":8080", "Address for the MCP http transport")
	RootCmd.AddCommand(serveCmd)
}
