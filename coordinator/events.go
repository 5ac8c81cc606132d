package coordinator

import (
	"context"
	"log/slog"
)

// Event topics. Consumers subscribe with MQTT wildcards, e.g.
// coordinator/models/#.
const (
	topicModelCreated      = "coordinator/models/created"
	topicVersionAdvanced   = "coordinator/models/advanced"
	topicVersionFinalized  = "coordinator/models/finalized"
	topicGradientAccepted  = "coordinator/gradients/accepted"
	topicSessionState      = "coordinator/sessions/state"
	topicContributorJoined = "coordinator/contributors/joined"
	topicReputationAwarded = "coordinator/contributors/awarded"
)

// publish is best effort: coordination state is authoritative in the ledgers,
// events only mirror it, so a broker outage must not fail the operation.
func (svc *service) publish(ctx context.Context, topic string, msg map[string]any) {
	if svc.pubsub == nil {
		return
	}
	if err := svc.pubsub.Publish(ctx, topic, msg); err != nil {
		svc.logger.WarnContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.Any("error", err),
		)
	}
}
