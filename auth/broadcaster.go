package auth

import (
	"sync"

	"github.com/google/uuid"
)

// Event tags a session change delivered to observers.
type Event string

const (
	EventInitialSession   Event = "INITIAL_SESSION"
	EventSignedIn         Event = "SIGNED_IN"
	EventSignedOut        Event = "SIGNED_OUT"
	EventTokenRefreshed   Event = "TOKEN_REFRESHED"
	EventPasswordRecovery Event = "PASSWORD_RECOVERY"
)

// ChangeFunc receives the event tag and the new session (nil on sign-out).
type ChangeFunc func(event Event, session *Session)

// Subscription is the handle returned from OnAuthStateChange. Unsubscribe
// may be called any number of times; only the first has an effect.
type Subscription struct {
	ID     string
	once   sync.Once
	cancel func()
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

type observer struct {
	id string
	fn ChangeFunc
}

// broadcaster is an ordered observer registry. Callbacks run in registration
// order on every emit.
type broadcaster struct {
	lock      sync.Mutex
	observers []observer
}

func newBroadcaster() *broadcaster {
	return &broadcaster{}
}

func (b *broadcaster) subscribe(fn ChangeFunc) *Subscription {
	id := uuid.New().String()

	b.lock.Lock()
	b.observers = append(b.observers, observer{id: id, fn: fn})
	b.lock.Unlock()

	return &Subscription{
		ID: id,
		cancel: func() {
			b.unsubscribe(id)
		},
	}
}

func (b *broadcaster) unsubscribe(id string) {
	b.lock.Lock()
	defer b.lock.Unlock()

	for i, obs := range b.observers {
		if obs.id == id {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			return
		}
	}
}

func (b *broadcaster) emit(event Event, session *Session) {
	b.lock.Lock()
	snapshot := make([]observer, len(b.observers))
	copy(snapshot, b.observers)
	b.lock.Unlock()

	for _, obs := range snapshot {
		obs.fn(event, session)
	}
}
