package mqtt

import (
	"encoding/json"
	"fmt"
	"time"
)

// statusPayload is the JSON body published on the lifecycle topic.
type statusPayload struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// presencePayload is the JSON body published on the presence topic.
type presencePayload struct {
	Present   bool   `json:"present"`
	Value     int    `json:"value"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

// buildStatusPayload creates the lifecycle status JSON. reason may be empty
// (plain online status).
func buildStatusPayload(clientID, status, reason string) []byte {
	data, _ := json.Marshal(statusPayload{
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return data
}

// buildPresencePayload creates the presence state JSON.
func buildPresencePayload(present bool, path string) []byte {
	value := 0
	if present {
		value = 1
	}
	data, _ := json.Marshal(presencePayload{
		Present:   present,
		Value:     value,
		Path:      path,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return data
}

// Publish sends a message to the specified MQTT topic.
//
// Parameters:
//   - topic: The topic to publish to
//   - payload: The message payload (JSON)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should keep the message for new subscribers
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return fmt.Errorf("%w: invalid QoS %d", ErrPublishFailed, qos)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishPresence publishes the current presence state, retained, so a
// late subscriber immediately sees the installation's state.
//
// Parameters:
//   - present: Current presence state
//   - path: OSC parameter path the state is being sent to
func (c *Client) PublishPresence(present bool, path string) error {
	return c.Publish(Topics{}.Presence(), buildPresencePayload(present, path), byte(c.cfg.QoS), true)
}
