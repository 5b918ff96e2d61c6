// Package metrics defines the instrumentation hooks a memoized computation
// reports to, with a no-op default and a Prometheus implementation.
package metrics

// Rejection reasons reported to [Recorder.Rejected].
const (
	ReasonEntries = "entries_overflow"
	ReasonMemory  = "memory_overflow"
)

// Recorder receives cache lifecycle events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// Hit is called when a call is served from the store.
	Hit()
	// Miss is called when a call has to invoke the computation.
	Miss()
	// Stored is called when a computed value is admitted.
	Stored()
	// Rejected is called when admission refuses a value.
	Rejected(reason string)
	// Expired is called for every entry removed by the TTL purge.
	Expired()
	// Observe reports the store size after a state change.
	Observe(entries int, memoryBytes int64)
}

type nop struct{}

func (nop) Hit()               {}
func (nop) Miss()              {}
func (nop) Stored()            {}
func (nop) Rejected(string)    {}
func (nop) Expired()           {}
func (nop) Observe(int, int64) {}

// Nop returns a Recorder that discards every event.
func Nop() Recorder { return nop{} }
