package cli

import "errors"

var (
	errKeysRequired = errors.New("at least one key is required")
	errRoundsRange  = errors.New("rounds must be positive")
	errJobsRange    = errors.New("jobs must be positive")
)
