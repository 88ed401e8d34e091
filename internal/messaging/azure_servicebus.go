package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/herdadmin/config"
	"example.com/backstage/services/herdadmin/internal/models"
)

// Publisher sends stage events to the queue
type Publisher interface {
	PublishStageEvent(ctx context.Context, event models.StageEvent) error
	Close() error
}

// StageEventHandler processes one received stage event
type StageEventHandler func(ctx context.Context, event models.StageEvent) error

// serviceBusClient implements the Publisher interface
type serviceBusClient struct {
	client     *azservicebus.Client
	sender     *azservicebus.Sender
	queueName  string
	clientType string
}

// NewServiceBusClient creates a new Azure Service Bus publisher
func NewServiceBusClient(cfg config.AzureConfig, clientType string) (Publisher, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &serviceBusClient{
		client:     client,
		sender:     sender,
		queueName:  cfg.QueueName,
		clientType: clientType,
	}, nil
}

// EncodeStageEvent builds the queue message for event
func EncodeStageEvent(event models.StageEvent, source string) (*azservicebus.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message body")
	}

	messageID := event.ID
	contentType := "application/json"
	subject := event.Kind
	return &azservicebus.Message{
		MessageID:   &messageID,
		ContentType: &contentType,
		Subject:     &subject,
		Body:        data,
		ApplicationProperties: map[string]interface{}{
			"source": source,
			"key":    event.Key,
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

// DecodeStageEvent parses a received message body
func DecodeStageEvent(body []byte) (models.StageEvent, error) {
	var event models.StageEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.StageEvent{}, errors.Wrap(err, "failed to unmarshal stage event")
	}
	if event.ID == "" || event.Key == "" {
		return models.StageEvent{}, errors.New("stage event is missing id or key")
	}
	return event, nil
}

// PublishStageEvent sends event to the Service Bus queue
func (s *serviceBusClient) PublishStageEvent(ctx context.Context, event models.StageEvent) error {
	msg, err := EncodeStageEvent(event, s.clientType)
	if err != nil {
		return err
	}
	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		return errors.Wrapf(err, "failed to send stage event to %s", s.queueName)
	}
	return nil
}

// Close closes the Service Bus client
func (s *serviceBusClient) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}

// Consumer receives stage events from the queue
type Consumer struct {
	client    *azservicebus.Client
	receiver  *azservicebus.Receiver
	queueName string
}

// NewConsumer creates a receiver on the configured queue
func NewConsumer(cfg config.AzureConfig) (*Consumer, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	receiver, err := client.NewReceiverForQueue(cfg.QueueName, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus receiver")
	}

	return &Consumer{client: client, receiver: receiver, queueName: cfg.QueueName}, nil
}

// Run receives messages in batches until ctx is cancelled. Handled messages
// are completed, failed ones abandoned for redelivery and undecodable ones
// dead-lettered.
func (c *Consumer) Run(ctx context.Context, handle StageEventHandler) error {
	log.Info().Msgf("Starting consumer for queue %s", c.queueName)

	for {
		messages, err := c.receiver.ReceiveMessages(ctx, 10, nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "failed to receive messages from %s", c.queueName)
		}

		for _, message := range messages {
			c.process(ctx, message, handle)
		}
	}
}

func (c *Consumer) process(ctx context.Context, message *azservicebus.ReceivedMessage, handle StageEventHandler) {
	// settle on a fresh context so shutdown does not strand locked messages
	settleCtx := context.Background()

	event, err := DecodeStageEvent(message.Body)
	if err != nil {
		log.Error().Err(err).Msgf("Dropping message '%s'", message.MessageID)
		reason := "undecodable"
		if err := c.receiver.DeadLetterMessage(settleCtx, message, &azservicebus.DeadLetterOptions{Reason: &reason}); err != nil {
			log.Error().Err(err).Msg("(DeadLetterMessage) failed")
		}
		return
	}

	if err := handle(ctx, event); err != nil {
		log.Error().Err(err).Msgf("Error processing message '%s'", message.MessageID)
		if err := c.receiver.AbandonMessage(settleCtx, message, nil); err != nil {
			log.Error().Err(err).Msg("(AbandonMessage) failed")
		}
		return
	}

	if err := c.receiver.CompleteMessage(settleCtx, message, nil); err != nil {
		log.Error().Err(err).Msg("(CompleteMessage) failed")
	}
}

// Close closes the receiver and client
func (c *Consumer) Close() error {
	if c.receiver != nil {
		if err := c.receiver.Close(context.Background()); err != nil {
			return err
		}
	}
	if c.client != nil {
		return c.client.Close(context.Background())
	}
	return nil
}
