package wallet

import "time"

// Default configuration values
const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxTopUp = "100000"
)
