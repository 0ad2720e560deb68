package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/config"
	msginfra "github.com/felixgeelhaar/essaycoach/internal/infrastructure/messaging"
	"github.com/felixgeelhaar/essaycoach/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
	"github.com/felixgeelhaar/essaycoach/pkg/domain/messaging"
)

var (
	messagingSecret string
	messagingEvents []string
)

var messagingCmd = &cobra.Command{
	Use:   "messaging",
	Short: "Manage messaging adapters (webhook, Slack)",
}

var messagingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured messaging adapters",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(cfg.Messaging.Adapters) == 0 {
			fmt.Fprintln(out, "No messaging adapters configured.")
			return nil
		}
		for _, a := range cfg.Messaging.Adapters {
			state := goodStyle.Render("enabled")
			if !a.Enabled {
				state = dimStyle.Render("disabled")
			}
			filters := "all events"
			if len(a.EventFilters) > 0 {
				filters = fmt.Sprint(a.EventFilters)
			}
			fmt.Fprintf(out, "%-16s %-8s %s  %s  %s\n", a.Name, a.Type, a.URL, state, dimStyle.Render(filters))
		}
		return nil
	},
}

var messagingAddCmd = &cobra.Command{
	Use:   "add <name> <type> <url>",
	Short: "Add a messaging adapter (types: webhook, slack)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, adapterType, url := args[0], args[1], args[2]

		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		for _, a := range cfg.Messaging.Adapters {
			if a.Name == name {
				return fmt.Errorf("adapter %q already exists", name)
			}
		}

		adapter := messaging.AdapterConfig{
			Name:         name,
			Type:         adapterType,
			URL:          url,
			Secret:       messagingSecret,
			EventFilters: messagingEvents,
			Enabled:      true,
		}
		// Rejects unknown types before anything is written.
		if _, err := msginfra.NewRegistry(&messaging.MessagingConfig{Adapters: []messaging.AdapterConfig{adapter}}, nil); err != nil {
			return err
		}
		cfg.Messaging.Adapters = append(cfg.Messaging.Adapters, adapter)

		if err := config.Save(root, cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added %s adapter %q → %s\n", adapterType, name, url)
		return nil
	},
}

var messagingTestCmd = &cobra.Command{
	Use:   "test <name>",
	Short: "Send a test event to a messaging adapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}

		var target *messaging.AdapterConfig
		for i, a := range cfg.Messaging.Adapters {
			if a.Name == name {
				target = &cfg.Messaging.Adapters[i]
				break
			}
		}
		if target == nil {
			return fmt.Errorf("adapter %q not found", name)
		}

		probe := *target
		probe.Enabled = true
		probe.EventFilters = nil
		registry, err := msginfra.NewRegistry(&messaging.MessagingConfig{Adapters: []messaging.AdapterConfig{probe}}, nil)
		if err != nil {
			return fmt.Errorf("create adapter: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		testEvent := &events.FeedbackReady{
			BaseEvent: events.NewBaseEvent(events.EventTypeFeedbackReady, "essaycoach-test"),
		}
		for _, adapter := range registry.Adapters() {
			if err := adapter.Send(ctx, testEvent); err != nil {
				return fmt.Errorf("send test to %q: %w", adapter.Name(), err)
			}
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Test event sent to adapter %q\n", name)
		return nil
	},
}

var messagingDeadLettersCmd = &cobra.Command{
	Use:   "deadletters",
	Short: "List events that adapters failed to deliver",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		workspace, err := wiring.NewWorkspace(root)
		if err != nil {
			return err
		}
		letters, err := workspace.DeadLetters.ReadAll()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, letters)
		}
		if len(letters) == 0 {
			fmt.Fprintln(out, "No failed deliveries.")
			return nil
		}
		for _, dl := range letters {
			fmt.Fprintf(out, "%s  %-12s %-16s %s\n", dl.FailedAt.Local().Format("2006-01-02 15:04:05"),
				dl.Adapter, dl.EventType, warnStyle.Render(dl.Error))
		}
		return nil
	},
}

func init() {
	messagingAddCmd.Flags().StringVar(&messagingSecret, "secret", "", "HMAC secret for webhook signatures")
	messagingAddCmd.Flags().StringSliceVar(&messagingEvents, "events", nil, "Event types to forward (default: all)")
	messagingDeadLettersCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print dead letters as JSON")
	messagingCmd.AddCommand(messagingListCmd)
	messagingCmd.AddCommand(messagingAddCmd)
	messagingCmd.AddCommand(messagingTestCmd)
	messagingCmd.AddCommand(messagingDeadLettersCmd)
	RootCmd.AddCommand(messagingCmd)
}
