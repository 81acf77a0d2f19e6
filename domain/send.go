package domain

// SendType classifies an outbound send.
type SendType int

const (
	SendToOne SendType = iota
	SendToAll
	SendToAllButOne
)

func (t SendType) String() string {
	switch t {
	case SendToOne:
		return "one-client"
	case SendToAll:
		return "all-clients"
	case SendToAllButOne:
		return "all-clients-but-one"
	default:
		return "unknown"
	}
}

// SendRecord describes the most recent outbound send. ClientID is the
// target for SendToOne and the excluded client for SendToAllButOne;
// it is empty for SendToAll.
type SendRecord struct {
	Message  Message
	ClientID string
	Type     SendType
}

// Inbound is a message received from a connected client.
type Inbound struct {
	ClientID string
	Message  Message
}
