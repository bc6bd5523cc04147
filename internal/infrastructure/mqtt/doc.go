// Package mqtt provides the optional MQTT status publisher for the
// presence bridge.
//
// The bridge's primary output is OSC; MQTT exists so a building-automation
// stack can observe the installation: retained presence state, and an
// online/offline lifecycle topic backed by a Last Will so a crashed bridge
// is visible too.
//
// Topics:
//
//	presence-bridge/system/status   retained JSON, online/offline
//	presence-bridge/presence        retained JSON, current presence state
//
// The whole package is optional — with mqtt.enabled false in config,
// nothing here is constructed and the bridge runs OSC-only.
package mqtt
