package models

// Compose groups and container names of the developer stack.
const (
	BaseComposeFile = "docker-compose-base.yml"
	MainComposeFile = "docker-compose.yml"

	// PrimaryService is both the compose service and the container name of the
	// game server.
	PrimaryService = "msde-vm-dev"
	BotService     = "bot-vm-dev"
	MetricsService = "metrics-vm-dev"
	Web3Service    = "web3-vm-dev"
)

// Invocation is one `docker compose ... up` call of a BootPlan.
type Invocation struct {
	// Group is a human readable label used in logs and errors ("base", "bot", "main").
	Group string

	// Files are compose files relative to the project's docker directory.
	Files []string

	// Target limits the invocation to a single service. Empty starts every
	// service of the group.
	Target string

	// InjectVolumes routes the run's VolumeConfig into the invocation's stdin
	// as an extra `-f -` compose file.
	InjectVolumes bool
}

// BootPlan is the ordered list of compose invocations for one boot.
type BootPlan struct {
	Features    []Feature
	Invocations []Invocation
}

// Groups returns the group labels in order.
func (p BootPlan) Groups() []string {
	out := make([]string, 0, len(p.Invocations))
	for _, inv := range p.Invocations {
		out = append(out, inv.Group)
	}
	return out
}
