package manager

import "errors"

// Error kinds surfaced by Manager operations. The registry has its own
// ErrUnknownPID; Manager operations report this package's ErrUnknownPID in
// its place, so callers only need to check one package's sentinels.
var (
	// ErrUnknownPID means a control operation named a pid with no
	// descriptor in the registry.
	ErrUnknownPID = errors.New("manager: unknown pid")

	// ErrHandshakeFailed means the first frame received after Hello was
	// not HelloOk, or the handshake read/decode failed outright.
	ErrHandshakeFailed = errors.New("manager: handshake failed")

	// ErrTimeout means AwaitResponse's deadline elapsed before a reply
	// was queued for the request id.
	ErrTimeout = errors.New("manager: await response timed out")

	// ErrCallFailed means the plugin's handler reported failure, either
	// by returning a Result with ok=false or an Error frame.
	ErrCallFailed = errors.New("manager: call failed")

	// ErrSpawnFailed means the runner process could not be launched
	// (socketpair, adopting the parent-side descriptor, or starting the
	// runner process).
	ErrSpawnFailed = errors.New("manager: spawn failed")
)
