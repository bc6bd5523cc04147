package mqtt

// topicPrefix is the base for all presence-bridge topics.
const topicPrefix = "presence-bridge"

// Topics provides builders for the bridge's MQTT topics. Using these
// helpers keeps topic naming consistent between the publisher, the LWT,
// and any subscriber documentation.
type Topics struct{}

// SystemStatus returns the lifecycle status topic.
//
// Example: presence-bridge/system/status
func (Topics) SystemStatus() string {
	return topicPrefix + "/system/status"
}

// Presence returns the presence state topic.
//
// Example: presence-bridge/presence
func (Topics) Presence() string {
	return topicPrefix + "/presence"
}
