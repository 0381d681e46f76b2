package client

import "fmt"

// Action is a remediation the trainee can choose for an event.
type Action string

const (
	ActionMonitor        Action = "monitor"
	ActionIsolate        Action = "isolate"
	ActionBlockIP        Action = "block_ip"
	ActionEscalate       Action = "escalate"
	ActionResetPasswords Action = "reset_passwords"
	ActionShutdown       Action = "shutdown"
)

// ActionEntry describes one action in the catalog.
type ActionEntry struct {
	Action      Action
	Label       string
	Description string
}

// Catalog returns the recognized actions in display order.
func Catalog() []ActionEntry {
	return []ActionEntry{
		{Action: ActionMonitor, Label: "Continue Monitoring", Description: "Keep watching for more indicators"},
		{Action: ActionIsolate, Label: "Isolate System", Description: "Disconnect from network"},
		{Action: ActionBlockIP, Label: "Block IP/Domain", Description: "Add to firewall blocklist"},
		{Action: ActionEscalate, Label: "Escalate to Security Team", Description: "Alert senior analysts"},
		{Action: ActionResetPasswords, Label: "Force Password Reset", Description: "Reset affected user passwords"},
		{Action: ActionShutdown, Label: "Emergency Shutdown", Description: "Shutdown affected systems"},
	}
}

// Valid reports whether a is one of the catalog actions.
func (a Action) Valid() bool {
	for _, e := range Catalog() {
		if e.Action == a {
			return true
		}
	}
	return false
}

// Label returns the display label for a, or the raw value if unknown.
func (a Action) Label() string {
	for _, e := range Catalog() {
		if e.Action == a {
			return e.Label
		}
	}
	return string(a)
}

// ParseAction converts s to an Action, rejecting values outside the catalog.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}
