package mqtt

import (
	"context"
	"encoding/json"
	"time"

	"tsch-topology/internal/commands"
	"tsch-topology/internal/eventBus"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

// HandlePlacementRequest decodes a request payload, runs the placement and
// builds the reply. The second result is the topic to reply on.
func HandlePlacementRequest(ctx context.Context, payload []byte, defaultReply string, bus *eventBus.EventBus) (PlacementReplyPayload, string) {
	var req PlacementRequestPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return PlacementReplyPayload{Error: "bad request: " + err.Error()}, defaultReply
	}
	topic := req.ReplyTopic
	if topic == "" {
		topic = defaultReply
	}
	reply := PlacementReplyPayload{RequestID: req.RequestID}
	res, err := commands.Execute(ctx, req.Request, bus)
	if err != nil {
		reply.Error = err.Error()
		return reply, topic
	}
	reply.Result = res
	return reply, topic
}

// ProcessPlacementRequest handles messages coming from the request topic,
// answering each on its reply topic. timeout bounds every placement.
func ProcessPlacementRequest(bus *eventBus.EventBus, defaultReply string, timeout time.Duration) func(mqtt.Client, mqtt.Message) {
	return func(client mqtt.Client, msg mqtt.Message) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		reply, topic := HandlePlacementRequest(ctx, msg.Payload(), defaultReply, bus)
		logger := log.WithFields(log.Fields{"topic": msg.Topic(), "request_id": reply.RequestID})
		if reply.Error != "" {
			logger.WithField("error", reply.Error).Warn("placement request failed")
		}

		data, err := json.Marshal(reply)
		if err != nil {
			logger.WithError(err).Error("encoding placement reply")
			return
		}
		token := client.Publish(topic, msg.Qos(), false, data)
		if token.WaitTimeout(connectTimeout) && token.Error() != nil {
			logger.WithError(token.Error()).Error("publishing placement reply")
		}
	}
}
