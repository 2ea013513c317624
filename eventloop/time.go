package eventloop

// VTimeInSec defines the virtual time of a loop in the unit of second.
type VTimeInSec float64

// A TimerID identifies a timer created by SetTimeout.
type TimerID uint64
