package models

import "fmt"

// AllowedTransition checks whether moving from current to target is permitted
// by the given transition map. It returns nil when the transition is valid
// and a descriptive error otherwise.
func AllowedTransition(transitions map[string][]string, current, target string) error {
	allowed, ok := transitions[current]
	if !ok {
		return fmt.Errorf("unknown current status: %s", current)
	}
	for _, s := range allowed {
		if s == target {
			return nil
		}
	}
	return fmt.Errorf("transition from %q to %q is not allowed", current, target)
}
