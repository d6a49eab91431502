package orchestrator

// Role distinguishes the two turn kinds chat_history carries (spec.md §3).
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Turn is one entry of chat_history.
type Turn struct {
	Role    Role
	Content string
}
