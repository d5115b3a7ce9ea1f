package timer

import "errors"

var (
	ErrDuplicateTimer = errors.New("timer already exists")
	ErrTimerNotFound  = errors.New("timer not found")
	ErrTimerNotActive = errors.New("timer is not running")
	ErrInvalidTimer   = errors.New("timer needs a name and a calendar id")
)
