package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/finance-tracker/internal/core/events"
	"github.com/frahmantamala/finance-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the in-process event bus: publish sample finance events through the activity logger`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample event",
	Long:      `Publish a sample rules.applied or upload.completed event and log it the way the server does`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypeRulesApplied, events.EventTypeUploadCompleted},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(cmd.Context(), args[0])
	},
}

var (
	eventUserID   int64
	eventCount    int
	eventFileName string
)

func sampleEvent(eventType string) (events.Event, error) {
	switch eventType {
	case events.EventTypeRulesApplied:
		return events.NewRulesAppliedEvent(eventUserID, eventCount), nil
	case events.EventTypeUploadCompleted:
		return events.NewUploadCompletedEvent(0, eventUserID, eventFileName, eventCount), nil
	}
	return nil, fmt.Errorf("unknown event type %q", eventType)
}

func publishSampleEvent(ctx context.Context, eventType string) error {
	lg := logger.LoggerWrapper()

	event, err := sampleEvent(eventType)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(lg)
	events.RegisterActivityLogger(bus, lg)

	lg.Info("publishing sample event", "event_type", event.EventType(), "event_id", event.EventID())
	if err := bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	bus.Wait()
	lg.Info("sample event delivered")
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventUserID, "user-id", 1, "user the event is attributed to")
	publishEventCmd.Flags().IntVar(&eventCount, "count", 1, "changed or imported transaction count")
	publishEventCmd.Flags().StringVar(&eventFileName, "file", "statement.csv", "file name for upload.completed")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
