package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

type published struct {
	topic   string
	payload []byte
}

// fakeClient only implements Publish; the embedded nil client panics on anything else.
type fakeClient struct {
	mqtt.Client
	sent []published
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.sent = append(c.sent, published{topic: topic, payload: payload.([]byte)})
	return doneToken{}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestHandlePlacementRequest(t *testing.T) {
	payload := `{"request_id": "r1", "request": {"mode": "chain", "nodes_num": 3, "y_spacing": 40}}`
	reply, topic := HandlePlacementRequest(context.Background(), []byte(payload), "topology/replies", nil)

	assert.Equal(t, "topology/replies", topic)
	assert.Equal(t, "r1", reply.RequestID)
	assert.Empty(t, reply.Error)
	require.NotNil(t, reply.Result)
	assert.Equal(t, 3, reply.Result.Positions.Len())
	assert.Equal(t, 80.0, reply.Result.Positions.At(2).Y)
}

func TestHandlePlacementRequestErrors(t *testing.T) {
	reply, topic := HandlePlacementRequest(context.Background(), []byte("not json"), "replies", nil)
	assert.Equal(t, "replies", topic)
	assert.Contains(t, reply.Error, "bad request")

	payload := `{"request_id": "r2", "reply_topic": "mine", "request": {"nodes_num": 0}}`
	reply, topic = HandlePlacementRequest(context.Background(), []byte(payload), "replies", nil)
	assert.Equal(t, "mine", topic)
	assert.Contains(t, reply.Error, "invalid placement configuration")
	assert.Nil(t, reply.Result)
}

func TestProcessPlacementRequestPublishesReply(t *testing.T) {
	client := &fakeClient{}
	handler := ProcessPlacementRequest(nil, "topology/replies", time.Second)
	handler(client, fakeMessage{
		topic:   "topology/requests",
		payload: []byte(`{"request_id": "r3", "request": {"nodes_num": 4, "x_radius": 60, "y_radius": 60, "tx_range": 40, "seed": 2}}`),
	})

	require.Len(t, client.sent, 1)
	assert.Equal(t, "topology/replies", client.sent[0].topic)
	var reply PlacementReplyPayload
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &reply))
	assert.Equal(t, "r3", reply.RequestID)
	require.NotNil(t, reply.Result)
	assert.Equal(t, 4, reply.Result.Positions.Len())
}

func TestManagerPublishUsesClient(t *testing.T) {
	client := &fakeClient{}
	m := NewWithClient(client)
	require.NoError(t, m.Publish("simulation/topology", 0, false, []byte("{}")))
	require.Len(t, client.sent, 1)
	assert.Equal(t, "simulation/topology", client.sent[0].topic)
}
