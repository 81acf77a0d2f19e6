package protocol

// Client-originated message type names. The payload schemas belong to the
// whiteboard client; the relay treats them as opaque.
const (
	PointerMove   = "pointer-move"
	PointerRemove = "pointer-remove"
	DrawStroke    = "draw-stroke"
	ClearScreen   = "clear-screen"
)

// KnownClientMessages returns the message type names decoded at the
// transport boundary. Anything else on the wire is dropped.
func KnownClientMessages() []string {
	return []string{PointerMove, PointerRemove, DrawStroke, ClearScreen}
}

// Message is a name plus an opaque payload. It satisfies domain.Message.
type Message struct {
	name    string
	payload any
}

func NewMessage(name string, payload any) Message {
	return Message{name: name, payload: payload}
}

func (m Message) Name() string { return m.name }
func (m Message) Payload() any { return m.payload }
