package wire

import "errors"

// ErrMalformed is returned by codec parsers when the buffer is too
// short to hold the header being read.
var ErrMalformed = errors.New("wire: malformed frame")
