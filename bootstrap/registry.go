package bootstrap

import (
	"fmt"
	"sync"

	"github.com/lukechampine/freeze"

	"github.com/johnsiilver/xpc/wire"
)

// entry is one registered spawn target: an id, and a body function boxed so
// the registry can hold entries of differing argument types behind one map.
type entry struct {
	id   string
	body func(frame wire.Frame) int
}

// registryMu and registrySealed guard registration and stay off the map's
// own allocation deliberately: freeze.Object mprotects the memory backing
// its argument, and a mutex that must still be locked on every post-seal
// lookup cannot live on a page that call might mark read-only. entries holds
// every entry registered via Register, keyed by id; once sealed (by the
// first Bootstrap or Spawn call) it is frozen with lukechampine/freeze,
// giving spec section 3's "never mutated afterward" invariant a real runtime
// check: a Register call after sealing panics instead of racing with a
// concurrently-running child dispatch.
var (
	registryMu     sync.Mutex
	registrySealed bool
	entries        = map[string]*entry{}
)

// Register declares a spawn target under id. body receives the typed
// argument value the caller passed to Spawn and returns the process exit
// code the child should terminate with. Register must be called before the
// registry is sealed by the first Bootstrap or Spawn call in this process —
// typically from init() or the top of main(), per spec section 3.
func Register[A any](id string, body func(A) int) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if registrySealed {
		panic(fmt.Errorf("%w: Register(%q)", ErrAlreadySealed, id))
	}
	if _, exists := entries[id]; exists {
		panic(fmt.Sprintf("bootstrap: entry id %q already registered", id))
	}
	entries[id] = &entry{
		id: id,
		body: func(f wire.Frame) int {
			arg, err := wire.Decode[A](f)
			if err != nil {
				return exitDecodeFailure
			}
			return body(arg)
		},
	}
}

// Seal freezes the registry, forbidding further Register calls. Bootstrap
// and Spawn call this automatically; user code only needs to call it
// directly if it wants the panic-on-late-Register behavior to trigger
// before either of those runs, e.g. in a test.
func Seal() {
	registryMu.Lock()
	defer registryMu.Unlock()
	if registrySealed {
		return
	}
	registrySealed = true
	freeze.Object(&entries)
}

// lookup returns the entry registered under id, or nil if none exists.
func lookup(id string) *entry {
	registryMu.Lock()
	defer registryMu.Unlock()
	return entries[id]
}
