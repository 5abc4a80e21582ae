// Package events provides a publish/subscribe bus for operational
// observability. Events flow from the agent runner and API server to
// subscribers such as the WebSocket feed. The bus is nil-safe: calling
// Publish on a nil *Bus is a no-op, so components need no guard checks.
package events

import (
	"sync"
	"time"
)

// Source constants identify which component published an event.
const (
	// SourceAgent identifies events from the agent runner.
	SourceAgent = "agent"
	// SourceAPI identifies events from the HTTP API server.
	SourceAPI = "api"
)

// Kind constants describe the type of event within a source.
const (
	// KindTaskStart signals the beginning of a task run.
	// Data: run_id, thread_id, task_len.
	KindTaskStart = "task_start"
	// KindLLMCall signals the start of a gateway call.
	// Data: run_id, iteration.
	KindLLMCall = "llm_call"
	// KindLLMResponse signals completion of a gateway call.
	// Data: run_id, iteration, tool_calls, tokens_in, tokens_out.
	KindLLMResponse = "llm_response"
	// KindToolCall signals the start of a tool execution.
	// Data: run_id, tool.
	KindToolCall = "tool_call"
	// KindToolDone signals completion of a tool execution.
	// Data: run_id, tool, ok, duration_ms.
	KindToolDone = "tool_done"
	// KindTaskComplete signals a task run finished successfully.
	// Data: run_id, iterations, tools_used, elapsed_ms.
	KindTaskComplete = "task_complete"
	// KindTaskError signals a task run failed.
	// Data: run_id, error.
	KindTaskError = "task_error"
)

// Event represents a single operational event published by a component.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"ts"`
	// Source identifies the component that published the event.
	Source string `json:"source"`
	// Kind describes the type of event within the source.
	Kind string `json:"kind"`
	// Data holds event-specific key/value pairs.
	Data map[string]any `json:"data,omitempty"`
}

// Bus is a non-blocking broadcast event bus. Subscribers receive events
// on buffered channels; slow subscribers miss events rather than
// blocking publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	// recvToSend maps the receive-only channel returned by Subscribe
	// back to the bidirectional channel stored in subs, so Unsubscribe
	// can accept the caller's <-chan Event view.
	recvToSend map[<-chan Event]chan Event
}

// New creates a new event bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
	}
}

// Publish sends an event to all subscribers. Non-blocking: if a
// subscriber's channel is full, the event is dropped for that
// subscriber. Safe to call on a nil receiver (no-op).
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is full, drop the event rather than block.
		}
	}
}

// Subscribe returns a channel that receives published events. The
// caller must eventually call Unsubscribe to avoid resource leaks.
// bufSize controls the channel buffer; 64 is a reasonable default for
// WebSocket consumers.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes the channel. Safe to
// call with a channel that is already unsubscribed (no-op).
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
