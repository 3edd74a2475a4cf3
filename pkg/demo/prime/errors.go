package prime

import "errors"

var (
	errNoPayload   = errors.New("prime: empty job payload")
	errUnparseable = errors.New("prime: could not parse the forwarded HTTP request")
	errNotANumber  = errors.New("prime: forwarded candidate is not a base-10 integer")
)
