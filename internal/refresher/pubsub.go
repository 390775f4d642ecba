package refresher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// JobTypeStatusRefresh is the Pub/Sub job type that triggers a cycle.
const JobTypeStatusRefresh = "status_refresh"

// RefreshMessage is the Pub/Sub trigger payload.
type RefreshMessage struct {
	JobType string `json:"job_type"`
	Reason  string `json:"reason,omitempty"`
}

// ErrInvalidMessage is returned for payloads that cannot be decoded.
var ErrInvalidMessage = errors.New("invalid refresh message")

// MessageProcessor turns trigger messages into refresh cycles.
type MessageProcessor struct {
	refresher *Refresher
	logger    zerolog.Logger
}

// NewMessageProcessor creates a processor for r.
func NewMessageProcessor(r *Refresher, logger zerolog.Logger) *MessageProcessor {
	return &MessageProcessor{refresher: r, logger: logger}
}

// Process handles one message. A nil return means the message should be
// acked; that includes unknown job types and triggers that arrive while a
// cycle is already running.
func (p *MessageProcessor) Process(ctx context.Context, data []byte) error {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	switch msg.JobType {
	case JobTypeStatusRefresh:
	default:
		p.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}

	result, err := p.refresher.RunCycle(ctx, TriggerPubSub)
	if errors.Is(err, ErrCycleInProgress) {
		return nil
	}
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("reason", msg.Reason).
		Uint64("cycle", result.Cycle).
		Int("failed", result.Failed).
		Msg("triggered refresh completed")

	return nil
}

// PubSubHandler receives refresh triggers from a Pub/Sub subscription.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *MessageProcessor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Processor        *MessageProcessor
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// One trigger at a time; concurrent ones would be skipped anyway.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 5 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processor:        cfg.Processor,
		logger:           cfg.Logger,
	}, nil
}

// Start blocks receiving messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	if err := h.processor.Process(ctx, msg.Data); err != nil {
		if errors.Is(err, ErrInvalidMessage) {
			// Redelivery cannot fix a malformed payload.
			logger.Error().Err(err).Msg("dropping malformed message")
			msg.Ack()
			return
		}
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	logger.Debug().Dur("duration", time.Since(startTime)).Msg("message processed")
	msg.Ack()
}
