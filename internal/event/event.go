package event

type Type string

const (
	TypeUserRegistered   Type = "auth.registered"
	TypeUserLoggedIn     Type = "auth.login"
	TypeUserLoggedOut    Type = "auth.logout"
	TypeSessionRefreshed Type = "auth.refresh"
	TypeCoinsTransferred Type = "coins.transferred"
	TypeCoinsCredited    Type = "coins.credited"
)

type Event struct {
	ID        string      `json:"id"`
	Type      Type        `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	ActorID   string      `json:"actor_id,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
