package config

// Sketch defaults.
const (
	DefaultShingleSize = 3
	DefaultHashCount   = 8
	DefaultSeed        = 0
)

// Input defaults.
const (
	DefaultMaxDocumentSize = "1MB"
	DefaultSkipVendor      = true
	DefaultSkipDotFiles    = true
	DefaultWorkers         = 0
)

// Server defaults.
const (
	DefaultServerHost         = "127.0.0.1"
	DefaultServerPort         = 8080
	DefaultServerReadTimeout  = "30s"
	DefaultServerWriteTimeout = "30s"
	DefaultServerIdleTimeout  = "60s"
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Telemetry defaults.
const (
	DefaultOTLPEndpoint = ""
	DefaultOTLPInsecure = false
	DefaultSampleRatio  = 0.0
	DefaultEnvironment  = ""
)
