// Package trace collects native-call-boundary trace events: WIPI-C stub
// calls, KTF class resolution, and method dispatch (spec §4.4/§4.7/§4.8).
// Tags are stored without # prefix; the prefix is added on rendering.
package trace

import "time"

// Tag represents a trace event category.
type Tag string

// Standard tags for trace events.
const (
	Bridge    Tag = "bridge"
	Kernel    Tag = "kernel"
	Graphics  Tag = "graphics"
	Database  Tag = "database"
	Media     Tag = "media"
	Java      Tag = "java"
	ClassLoad Tag = "class-load"
	Method    Tag = "method-dispatch"
	Alloc     Tag = "alloc"
	Timer     Tag = "timer"
	Unimpl    Tag = "unimplemented"
)

// Tags is a collection of tags with helper methods.
type Tags []Tag

// Has returns true if the tag collection contains the given tag.
func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// Add adds a tag if not already present.
func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

// Strings returns tags as strings with # prefix for display.
func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

// Raw returns tags as strings without # prefix.
func (t Tags) Raw() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = string(tag)
	}
	return out
}

// Primary returns the first tag or empty string if none.
func (t Tags) Primary() Tag {
	if len(t) > 0 {
		return t[0]
	}
	return ""
}

// Annotations holds key-value metadata for trace events.
type Annotations map[string]string

// Set adds or updates an annotation.
func (a Annotations) Set(k, v string) {
	a[k] = v
}

// Get retrieves an annotation value.
func (a Annotations) Get(k string) string {
	return a[k]
}

// Has returns true if the annotation exists.
func (a Annotations) Has(k string) bool {
	_, ok := a[k]
	return ok
}

// EventRecord is one recorded native-call-boundary crossing: a bridge
// trampoline hit, a KTF class resolution, or a method dispatch.
type EventRecord struct {
	PC          uint64 // return address, or 0 if not applicable
	Tags        Tags   // multiple hashtags, first is primary
	Name        string // function or class name
	Detail      string // e.g. "size=24", "class=net/wie/KtfClassLoader"
	Annotations Annotations
	Timestamp   time.Time
}

// NewEvent creates a new trace event with the given parameters.
func NewEvent(pc uint64, category, name, detail string) *EventRecord {
	return &EventRecord{
		PC:          pc,
		Tags:        Tags{Tag(category)},
		Name:        name,
		Detail:      detail,
		Annotations: make(Annotations),
		Timestamp:   time.Now(),
	}
}

// AddTag adds a tag to the event.
func (e *EventRecord) AddTag(tag Tag) {
	e.Tags.Add(tag)
}

// Annotate sets an annotation on the event.
func (e *EventRecord) Annotate(k, v string) {
	if e.Annotations == nil {
		e.Annotations = make(Annotations)
	}
	e.Annotations.Set(k, v)
}

// PrimaryTag returns the primary (first) tag with # prefix.
func (e *EventRecord) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Enricher enriches trace events based on category and name.
type Enricher func(e *EventRecord)

// DefaultEnricher adds a second, more specific tag for well-known
// categories.
func DefaultEnricher(e *EventRecord) {
	if len(e.Tags) == 0 {
		return
	}

	switch e.Tags[0] {
	case "kernel":
		switch e.Name {
		case "alloc", "calloc", "free":
			e.AddTag(Alloc)
		case "def_timer", "set_timer", "unset_timer":
			e.AddTag(Timer)
		}
	case "ktf":
		e.AddTag(Java)
		if e.Name == "get_class" {
			e.AddTag(ClassLoad)
		}
	case "bridge":
		e.AddTag(Bridge)
	}
}

// Sink collects trace events as they are recorded, bounded to the most
// recent capacity entries — the backing store for debug introspection
// (internal/debugrpc).
type Sink struct {
	capacity int
	events   []*EventRecord
	enrich   Enricher
}

// NewSink creates a sink retaining at most capacity events.
func NewSink(capacity int, enrich Enricher) *Sink {
	if enrich == nil {
		enrich = DefaultEnricher
	}
	return &Sink{capacity: capacity, enrich: enrich}
}

// Record appends ev, enriching it first, evicting the oldest event if
// the sink is at capacity.
func (s *Sink) Record(ev *EventRecord) {
	s.enrich(ev)
	s.events = append(s.events, ev)
	if len(s.events) > s.capacity {
		s.events = s.events[len(s.events)-s.capacity:]
	}
}

// Recent returns the n most recently recorded events, newest last. n<=0
// or n greater than the retained count returns everything retained.
func (s *Sink) Recent(n int) []*EventRecord {
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	return append([]*EventRecord(nil), s.events[len(s.events)-n:]...)
}

// Len reports how many events are currently retained.
func (s *Sink) Len() int { return len(s.events) }
