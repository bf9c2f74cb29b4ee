// Command kafka_smoketest round-trips one event through the Kafka event bus
// against a local cluster.
//
//	BROKERS=localhost:9092 go run ./scripts/kafka_smoketest
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	infra_eventbus "github.com/amirasaad/voicepay/infra/eventbus"
	"github.com/amirasaad/voicepay/pkg/domain/events"
	"github.com/google/uuid"
)

// RunSmokeTest emits a UserSignedUp event and waits for the bus to deliver
// it back to a registered handler.
func RunSmokeTest(ctx context.Context, logger *slog.Logger) error {
	brokers := strings.TrimSpace(os.Getenv("BROKERS"))
	if brokers == "" {
		brokers = "localhost:9093,localhost:9092"
	}
	groupID := strings.TrimSpace(os.Getenv("GROUP_ID"))
	if groupID == "" {
		groupID = "voicepay-smoketest"
	}

	bus, err := infra_eventbus.NewWithKafka(brokers, infra_eventbus.KafkaConfig{
		GroupID:     groupID,
		TopicPrefix: "voicepay.smoketest",
	}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bus.Close() }()

	want := events.UserSignedUp{
		UserID:     uuid.New(),
		AccountID:  uuid.New(),
		Name:       "Smoke Test",
		Phone:      "+919999999999",
		Handle:     "smoketest@upi",
		OccurredAt: time.Now().UTC(),
	}
	got := make(chan events.UserSignedUp, 1)
	bus.Register(want.Type(), func(_ context.Context, e events.Event) error {
		if ev, ok := e.(events.UserSignedUp); ok && ev.UserID == want.UserID {
			select {
			case got <- ev:
			default:
			}
		}
		return nil
	})

	if err := bus.Emit(ctx, want); err != nil {
		return err
	}
	logger.Info("produced", "type", want.Type(), "user_id", want.UserID)

	select {
	case ev := <-got:
		logger.Info("consumed", "type", ev.Type(), "handle", ev.Handle)
	case <-ctx.Done():
		return errors.New("timed out waiting for event")
	}
	logger.Info("kafka smoke test passed")
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := RunSmokeTest(ctx, logger); err != nil {
		logger.Error("kafka smoke test failed", "error", err)
		os.Exit(1)
	}
}
