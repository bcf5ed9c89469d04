// Package mqtt publishes PrintDeck state to an MQTT broker.
//
// The broker integration is optional and one-directional: PrintDeck
// publishes retained per-printer state messages and a system status topic
// so home-automation consumers (Home Assistant, Node-RED) can mirror the
// dashboard without polling it. Nothing is subscribed.
//
// Topics:
//   - printdeck/state/{printerID}: retained JSON of the printer's derived
//     display state
//   - printdeck/system/status: retained online/offline status with a Last
//     Will publishing the offline form on unexpected disconnect
//
// The client wraps paho.mqtt.golang with automatic reconnection and
// exponential backoff.
package mqtt
