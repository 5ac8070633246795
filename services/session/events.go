package session

import (
	"time"

	"go.uber.org/zap"
)

type EventType string

const (
	EventState         EventType = "state"
	EventTaskSucceeded EventType = "task.succeeded"
	EventTaskFailed    EventType = "task.failed"
	EventNotice        EventType = "notice"
	EventSignedIn      EventType = "auth.signed_in"
	EventSignedOut     EventType = "auth.signed_out"
)

// Event is what observers of a Store receive.
type Event struct {
	Type    EventType `json:"type"`
	Task    *TaskInfo `json:"task,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// Subscribe returns a channel of events and a func that closes it. Slow
// observers lose events rather than block the Store; the next state event
// tells them to re-read the snapshot.
func (s *Store) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextObs
	s.nextObs++
	s.observers[id] = ch

	return ch, func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		if c, ok := s.observers[id]; ok {
			delete(s.observers, id)
			close(c)
		}
	}
}

// ObserverCount reports how many observers are attached.
func (s *Store) ObserverCount() int {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	return len(s.observers)
}

func (s *Store) publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = s.now()
	}
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	for _, ch := range s.observers {
		select {
		case ch <- ev:
		default:
			s.logger.Debug("session.publish: observer lagging, event dropped", zap.String("type", string(ev.Type)))
		}
	}
}

func (s *Store) publishState() {
	s.publish(Event{Type: EventState})
}

func (s *Store) notice(msg string) {
	s.publish(Event{Type: EventNotice, Message: msg})
}

func (s *Store) closeObservers() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.closed = true
	for id, ch := range s.observers {
		delete(s.observers, id)
		close(ch)
	}
}
