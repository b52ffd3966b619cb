package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, conversion failure)
	ExitConfigError = 2 // Configuration error (bad config file, environment or flags)
	ExitDataError   = 3 // Some inputs failed, or a checked package has errors
)
