package viewer

import "mprviewer/internal/models"

// Notifier fans change-sets out to independently owned viewers.
// Observers are called synchronously, in subscription order.
type Notifier struct {
	nextID    int
	observers []subscription
}

type subscription struct {
	id       int
	observer Observer
}

// Subscribe registers obs and returns a function that removes it again
func (n *Notifier) Subscribe(obs Observer) (unsubscribe func()) {
	n.nextID++
	id := n.nextID
	n.observers = append(n.observers, subscription{id: id, observer: obs})
	return func() { n.remove(id) }
}

// Len returns the number of registered observers
func (n *Notifier) Len() int { return len(n.observers) }

// Publish delivers cs to every observer
func (n *Notifier) Publish(cs models.ChangeSet) {
	// Copy so an observer may unsubscribe while being notified
	observers := append([]subscription(nil), n.observers...)
	for _, sub := range observers {
		sub.observer.OnChange(cs)
	}
}

func (n *Notifier) remove(id int) {
	for i, sub := range n.observers {
		if sub.id == id {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}
