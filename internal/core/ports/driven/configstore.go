package driven

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
// Keys are dot separated ("retrieval.top_k").
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	// Returns the value and a boolean indicating if the key exists.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" if unset or not a string.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 if unset or not numeric.
	GetInt(key string) int

	// GetFloat retrieves a floating-point value, or 0 if unset or not numeric.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, or false if unset or not a boolean.
	GetBool(key string) bool

	// Set stores a configuration value and persists it immediately.
	Set(key string, value any) error

	// Keys returns every key currently set, sorted.
	Keys() []string

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the configuration file path.
	Path() string
}
