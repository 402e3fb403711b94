package memory

import "errors"

var errStoreClosed = errors.New("store closed")
