package utils

// EmptyString represents a reusable empty string constant.
const EmptyString = ""

const (
	// ApplicationName is the binary name used in messages and paths.
	ApplicationName = "pmgen"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".pmgen"
	// ConfigFileName is the configuration file name looked up globally and in the working directory.
	ConfigFileName = "config.yaml"
	// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes the fatal error printed by main.
	ApplicationExecutionFailedMessage = "pmgen failed"
)
