package event

import (
	"sync"

	"inkboard-relay-server/domain"
)

type subscriber[T any] struct {
	id int
	fn func(T)
}

// feed is an ordered subscriber list. Delivery is synchronous: Emit calls
// every current subscriber, in subscription order, before returning.
type feed[T any] struct {
	mu   sync.Mutex
	next int
	subs []subscriber[T]
}

func (f *feed[T]) subscribe(fn func(T)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.next
	f.next++
	f.subs = append(f.subs, subscriber[T]{id: id, fn: fn})

	return func() { f.unsubscribe(id) }
}

func (f *feed[T]) unsubscribe(id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, s := range f.subs {
		if s.id == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return
		}
	}
}

func (f *feed[T]) emit(v T) {
	f.mu.Lock()
	fns := make([]func(T), len(f.subs))
	for i, s := range f.subs {
		fns[i] = s.fn
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Notifier fans out relay lifecycle and message events to registered
// observers. There is no buffering and no cross-process delivery.
type Notifier struct {
	clientConnect    feed[string]
	clientDisconnect feed[string]
	clientMessage    feed[domain.Inbound]
	serverMessage    feed[domain.SendRecord]
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// OnClientConnect registers an observer for client connects. The returned
// func cancels the subscription. Same shape for the other event kinds.
func (n *Notifier) OnClientConnect(fn func(clientID string)) func() {
	return n.clientConnect.subscribe(fn)
}

func (n *Notifier) OnClientDisconnect(fn func(clientID string)) func() {
	return n.clientDisconnect.subscribe(fn)
}

func (n *Notifier) OnClientMessage(fn func(in domain.Inbound)) func() {
	return n.clientMessage.subscribe(fn)
}

func (n *Notifier) OnServerMessage(fn func(rec domain.SendRecord)) func() {
	return n.serverMessage.subscribe(fn)
}

func (n *Notifier) EmitClientConnect(clientID string) {
	n.clientConnect.emit(clientID)
}

func (n *Notifier) EmitClientDisconnect(clientID string) {
	n.clientDisconnect.emit(clientID)
}

func (n *Notifier) EmitClientMessage(in domain.Inbound) {
	n.clientMessage.emit(in)
}

func (n *Notifier) EmitServerMessage(rec domain.SendRecord) {
	n.serverMessage.emit(rec)
}
