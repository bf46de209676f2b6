package provider

import "sync"

// StaticResult is the standard Result implementation shared by the built-in
// providers.
//
// It holds a fixed row snapshot plus the loading flag, and implements the
// notification and release semantics the Result contract requires:
//   - a single OnChange callback, replaceable until fired
//   - a notification firing before any callback is registered is latched
//     and delivered as soon as one is
//   - Notify after Close is a no-op
//   - Close is idempotent
//
// Thread Safety:
// All methods are safe for concurrent use.
type StaticResult struct {
	mu       sync.Mutex
	rows     []Row
	loading  bool
	onChange func()
	notified bool
	closed   bool
	onClose  func()
}

// NewStaticResult builds a result over the given row snapshot.
func NewStaticResult(rows []Row, loading bool) *StaticResult {
	return &StaticResult{rows: rows, loading: loading}
}

// Rows returns the snapshot's rows.
func (r *StaticResult) Rows() []Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Loading reports whether this snapshot is still being populated.
func (r *StaticResult) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// OnChange registers the change-notification callback.
//
// If a notification already fired while no callback was registered, fn is
// invoked immediately: the underlying data became ready before the owner
// subscribed, and that signal must not be lost.
func (r *StaticResult) OnChange(fn func()) {
	r.mu.Lock()
	pending := r.notified && !r.closed && fn != nil
	if pending {
		r.notified = false
	}
	r.onChange = fn
	r.mu.Unlock()

	if pending {
		fn()
	}
}

// SetOnClose registers a hook invoked once when the result is closed.
// Providers use it to unhook the result from their notification fan-out.
func (r *StaticResult) SetOnClose(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = fn
}

// Notify fires the registered change callback, or latches the fire when
// no callback is registered yet so a later OnChange still observes it.
//
// Notifications on a closed result are dropped: once the owner released
// the snapshot it must never observe a late callback.
func (r *StaticResult) Notify() {
	r.mu.Lock()
	fn := r.onChange
	closed := r.closed
	if fn == nil && !closed {
		r.notified = true
	}
	r.mu.Unlock()

	if closed || fn == nil {
		return
	}
	fn()
}

// Close releases the result. Subsequent calls are no-ops.
func (r *StaticResult) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	hook := r.onClose
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// Closed reports whether Close has been called.
func (r *StaticResult) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
