package mqtt

import "tsch-topology/internal/commands"

// PlacementRequestPayload is what clients publish on the request topic.
// The reply goes to ReplyTopic, or to the manager's default reply topic.
type PlacementRequestPayload struct {
	RequestID  string                `json:"request_id"`
	ReplyTopic string                `json:"reply_topic,omitempty"`
	Request    commands.PlaceRequest `json:"request"`
}

// PlacementReplyPayload carries either the placement or the error text.
type PlacementReplyPayload struct {
	RequestID string                  `json:"request_id"`
	Result    *commands.PlaceResponse `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
}
