// bus.go
package bus

import (
	"sync"

	"camremote-go/types"
)

// Wildcard matches the remainder of a topic when used as the last token of a
// subscription.
const Wildcard = "#"

// Topic is a sequence of path tokens, e.g. {"carrier", "ir"}.
type Topic []string

// TopicOf is the topic an event is published on: {kind, name}.
func TopicOf(ev types.Event) Topic { return Topic{string(ev.Kind), ev.Name} }

// Subscription receives matching events on a bounded channel. Slow readers
// lose the oldest events, never block publishers.
type Subscription struct {
	topic Topic
	ch    chan types.Event
	hub   *Hub
}

func (s *Subscription) Topic() Topic                { return s.topic }
func (s *Subscription) Channel() <-chan types.Event { return s.ch }
func (s *Subscription) Unsubscribe()                { s.hub.unsubscribe(s) }

type node struct {
	children map[string]*node
	subs     []*Subscription // exact
	wild     []*Subscription // "#" at this level
	retained *types.Event
}

// Hub fans component events out to subscribers and keeps the last event per
// topic, so late subscribers see current state.
type Hub struct {
	mu   sync.Mutex
	root node
	qLen int
}

// New creates a hub whose subscriptions buffer queueLen events.
func New(queueLen int) *Hub {
	if queueLen <= 0 {
		queueLen = 8
	}
	return &Hub{qLen: queueLen}
}

// Emit publishes ev on TopicOf(ev). It implements halcore.EventEmitter and
// reports whether anybody was listening.
func (h *Hub) Emit(ev types.Event) bool {
	return h.Publish(TopicOf(ev), ev) > 0
}

// Publish delivers ev to every matching subscription, retains it and returns
// the number of deliveries.
func (h *Hub) Publish(t Topic, ev types.Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n, delivered := &h.root, 0
	for _, tok := range t {
		delivered += deliver(n.wild, ev)
		n = n.child(tok)
	}
	delivered += deliver(n.wild, ev)
	delivered += deliver(n.subs, ev)
	e := ev
	n.retained = &e
	return delivered
}

func deliver(subs []*Subscription, ev types.Event) int {
	for _, s := range subs {
		select {
		case s.ch <- ev:
		default:
			// drop oldest
			select {
			case <-s.ch:
			default:
			}
			s.ch <- ev
		}
	}
	return len(subs)
}

func (n *node) child(tok string) *node {
	if n.children == nil {
		n.children = make(map[string]*node)
	}
	c, ok := n.children[tok]
	if !ok {
		c = &node{}
		n.children[tok] = c
	}
	return c
}

// Subscribe registers interest in t. A trailing Wildcard matches any suffix,
// including none. Retained events under t are delivered immediately.
func (h *Hub) Subscribe(t Topic) *Subscription {
	s := &Subscription{topic: append(Topic(nil), t...), ch: make(chan types.Event, h.qLen), hub: h}
	h.mu.Lock()
	defer h.mu.Unlock()

	n, wild := &h.root, false
	for i, tok := range t {
		if tok == Wildcard && i == len(t)-1 {
			wild = true
			break
		}
		n = n.child(tok)
	}
	if wild {
		n.wild = append(n.wild, s)
		n.replay(s)
		return s
	}
	n.subs = append(n.subs, s)
	if n.retained != nil {
		deliver([]*Subscription{s}, *n.retained)
	}
	return s
}

// replay sends every retained event at or below n.
func (n *node) replay(s *Subscription) {
	if n.retained != nil {
		deliver([]*Subscription{s}, *n.retained)
	}
	for _, c := range n.children {
		c.replay(s)
	}
}

// Retained returns the last event published on t.
func (h *Hub) Retained(t Topic) (types.Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := &h.root
	for _, tok := range t {
		c, ok := n.children[tok]
		if !ok {
			return types.Event{}, false
		}
		n = c
	}
	if n.retained == nil {
		return types.Event{}, false
	}
	return *n.retained, true
}

func (h *Hub) unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := &h.root
	for i, tok := range s.topic {
		if tok == Wildcard && i == len(s.topic)-1 {
			if remove(&n.wild, s) {
				close(s.ch)
			}
			return
		}
		c, ok := n.children[tok]
		if !ok {
			return
		}
		n = c
	}
	if remove(&n.subs, s) {
		close(s.ch)
	}
}

func remove(list *[]*Subscription, s *Subscription) bool {
	for i, x := range *list {
		if x == s {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}
