package main

// Exit codes
const (
	ExitSuccess           = 0 // Success
	ExitError             = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError       = 2 // Configuration error (missing workspace, invalid config)
	ExitDataError         = 3 // Data error (malformed input, validation failure)
	ExitOllamaUnavailable = 4 // Ollama not reachable
	ExitModelNotFound     = 5 // Embedding model not found
	ExitNoGraph           = 6 // No graph built yet
	ExitNoPath            = 7 // No path between the requested nodes
	ExitIntegrity         = 8 // Graph check found problems
)
