package agent

// State is a node of the agent state machine.
type State string

const (
	StateAgent State = "AGENT"
	StateTools State = "TOOLS"
	StateEnd   State = "END"
)
