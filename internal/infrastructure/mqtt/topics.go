package mqtt

import "fmt"

// Topic prefixes for the PrintDeck MQTT namespace.
const (
	// TopicPrefix is the base for all PrintDeck topics.
	TopicPrefix = "printdeck"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "printdeck/system"
)

// Topics provides builders for PrintDeck MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// PrinterState returns the retained state topic for one printer.
//
// Example: printdeck/state/5f1c9a
func (Topics) PrinterState(printerID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, printerID)
}

// SystemStatus returns the system status topic.
//
// Example: printdeck/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllPrinterStates returns a pattern matching every printer state topic.
//
// Pattern: printdeck/state/+
func (Topics) AllPrinterStates() string {
	return fmt.Sprintf("%s/state/+", TopicPrefix)
}
