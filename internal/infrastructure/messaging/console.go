package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/essaycoach/pkg/domain/events"
)

var (
	infoStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// ConsoleNotifier prints notifications as styled lines.
type ConsoleNotifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleNotifier writes to out, usually stderr.
func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Notify(_ context.Context, level events.NotificationLevel, title, message string) error {
	style := infoStyle
	switch level {
	case events.NotificationLevelWarning:
		style = warningStyle
	case events.NotificationLevelError:
		style = errorStyle
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintf(n.out, "%s %s\n", style.Render(title+":"), message)
	return err
}

// FanoutNotifier delivers each notification to every notifier.
type FanoutNotifier struct {
	notifiers []events.Notifier
}

// NewFanoutNotifier skips nil notifiers.
func NewFanoutNotifier(notifiers ...events.Notifier) *FanoutNotifier {
	f := &FanoutNotifier{}
	for _, n := range notifiers {
		if n != nil {
			f.notifiers = append(f.notifiers, n)
		}
	}
	return f
}

// Notify returns the joined errors of every failed delivery.
func (f *FanoutNotifier) Notify(ctx context.Context, level events.NotificationLevel, title, message string) error {
	var errs []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, level, title, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
