package core

// AgentType names the underlying implementation/backend an Agent wraps
// (e.g. a specific model family or tool integration).
type AgentType string

// AgentStatus is the liveness of an Agent as tracked by the registry.
type AgentStatus string

const (
	AgentStatusOnline  AgentStatus = "online"
	AgentStatusBusy    AgentStatus = "busy"
	AgentStatusOffline AgentStatus = "offline"
)

// Capability is a skill an Agent can be matched against for routing.
type Capability string

const (
	CapabilityCodeGeneration Capability = "code-generation"
	CapabilityReview         Capability = "review"
	CapabilityTesting        Capability = "testing"
	CapabilityArchitecture   Capability = "architecture"
	CapabilityDocumentation  Capability = "documentation"
	CapabilityDebugging      Capability = "debugging"
	CapabilityPlanning       Capability = "planning"
)

// Agent is a routable worker: an external collaborator invoked through the
// AgentInvoker port.
type Agent struct {
	Id           AgentId
	Type         AgentType
	DisplayName  string
	Status       AgentStatus
	Capabilities map[Capability]bool
	Strengths    []string
	Config       map[string]string
}

// NewAgent constructs an Agent, deriving its Id from displayName. It starts
// AgentStatusOffline until the registry's health-check driver observes it.
func NewAgent(displayName string, agentType AgentType, capabilities ...Capability) (*Agent, error) {
	id, err := NewAgentId(displayName)
	if err != nil {
		return nil, err
	}
	caps := make(map[Capability]bool, len(capabilities))
	for _, c := range capabilities {
		caps[c] = true
	}
	return &Agent{
		Id:           id,
		Type:         agentType,
		DisplayName:  displayName,
		Status:       AgentStatusOffline,
		Capabilities: caps,
	}, nil
}

// HasCapability reports whether the agent is registered for c.
func (a *Agent) HasCapability(c Capability) bool {
	return a.Capabilities[c]
}

// IsAvailable reports whether the agent can currently be selected at all
// (i.e. is not offline). Online vs busy ranking is the selector's concern.
func (a *Agent) IsAvailable() bool {
	return a.Status != AgentStatusOffline
}
