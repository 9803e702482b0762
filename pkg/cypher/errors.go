package cypher

import "errors"

// ErrParse is wrapped by every parse failure. Per §7 a parse error is
// fatal for the query but not for the process: callers fold it into a
// zero match count rather than propagating a panic.
var ErrParse = errors.New("cypher: parse error")
