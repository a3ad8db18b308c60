package store

import "errors"

// ErrOOM is returned by Set when applying it would exceed the configured
// memory budget under the noeviction policy (§4.5, §7).
var ErrOOM = errors.New("store: used memory would exceed maxmemory under noeviction policy")
