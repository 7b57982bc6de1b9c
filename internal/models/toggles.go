package models

import "strings"

// Toggles is the live control surface read by the Executor.
// Stored as plain KV strings on the bus so an operator can flip them with
// a bare SET.
type Toggles struct {
	AutoTrade bool
	Paper     bool
}

// ParseBoolToggle accepts the common truthy/falsy synonyms an operator
// might type by hand: true/false, 1/0, yes/no, on/off. Unrecognized or
// empty values default to false.
func ParseBoolToggle(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
