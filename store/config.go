package store

// Config holds configuration for the DynamoDB-backed store.
type Config struct {
	// Tables maps a document kind to its DynamoDB table name.
	// Default: {"User": "tinyinsta_users", "Post": "tinyinsta_posts"}
	Tables map[string]string
}

// DefaultConfig returns the default kind-to-table mapping.
func DefaultConfig() Config {
	return Config{
		Tables: map[string]string{
			"User": "tinyinsta_users",
			"Post": "tinyinsta_posts",
		},
	}
}

// validate ensures config values are usable.
func (c *Config) validate() {
	if len(c.Tables) == 0 {
		c.Tables = DefaultConfig().Tables
	}
}

// tableFor resolves the table for a kind, or "" if unmapped.
func (c *Config) tableFor(kind string) string {
	return c.Tables[kind]
}
