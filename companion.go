package companion

import "errors"

// ErrTagsNotFound is returned when a scope's tags file does not exist. The
// scope keeps whatever index it had before.
var ErrTagsNotFound = errors.New("companion: tags file not found")
