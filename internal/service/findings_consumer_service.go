package service

import (
	"context"
	"encoding/json"

	"research-assistant-be/internal/dto"
	"research-assistant-be/internal/pkg/logger"
	"research-assistant-be/pkg/apperr"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// findingsConsumer persists generated summaries and comparisons published
// after each cycle into long-term storage.
type findingsConsumer struct {
	subscriber message.Subscriber
	topicName  string
	store      IMemoryStore
	logger     logger.ILogger
}

func NewFindingsConsumer(
	subscriber message.Subscriber,
	topicName string,
	store IMemoryStore,
	log logger.ILogger,
) IConsumerService {
	return &findingsConsumer{
		subscriber: subscriber,
		topicName:  topicName,
		store:      store,
		logger:     log,
	}
}

func (cs *findingsConsumer) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *findingsConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.FindingsMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("FINDINGS", "Failed to unmarshal findings message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // redelivery cannot fix a malformed payload
		return
	}

	saved := 0
	for _, ls := range payload.Summaries {
		if err := cs.store.SaveLiteratureSummary(ctx, ls); err != nil {
			if cs.skip(err, "summary", ls.Id) {
				continue
			}
			msg.Nack()
			return
		}
		saved++
	}
	for _, tc := range payload.Comparisons {
		if err := cs.store.SaveTreatmentComparison(ctx, tc); err != nil {
			if cs.skip(err, "comparison", tc.Id) {
				continue
			}
			msg.Nack()
			return
		}
		saved++
	}

	cs.logger.Info("FINDINGS", "Findings stored", map[string]interface{}{
		"session_id": payload.SessionId,
		"saved":      saved,
	})
	msg.Ack()
}

// skip reports whether err is permanent for this record. Storage failures are retried.
func (cs *findingsConsumer) skip(err error, kind, id string) bool {
	if apperr.IsKind(err, apperr.KindValidation) {
		cs.logger.Warn("FINDINGS", "Dropping invalid "+kind, map[string]interface{}{"id": id, "error": err.Error()})
		return true
	}
	if apperr.IsKind(err, apperr.KindConflict) {
		cs.logger.Info("FINDINGS", "Keeping approved "+kind, map[string]interface{}{"id": id})
		return true
	}
	cs.logger.Error("FINDINGS", "Failed to store "+kind, map[string]interface{}{"id": id, "error": err.Error()})
	return false
}
