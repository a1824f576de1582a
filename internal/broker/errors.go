package broker

import "errors"

var (
	errSupervisorStopped = errors.New("broker: supervisor is no longer running")
	errTooManyWorkers    = errors.New("broker: too many supervised gc workers")
)
