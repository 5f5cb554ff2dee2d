package types

// StoreConfig holds settings for the tag index database.
type StoreConfig struct {
	// DataDir is the directory holding the index database (index/tags.db).
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// SchemaConfig holds settings for the alias schema file.
type SchemaConfig struct {
	// Path is the YAML file holding alias -> canonical mappings.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// FiltersConfig holds settings for saved search filters.
type FiltersConfig struct {
	// Path is the YAML file holding the saved filters.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default warn).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json (default text).
	Format string `json:"format" yaml:"format" mapstructure:"format"`

	// File, when set, receives log output in addition to stderr and is
	// rotated according to the fields below.
	File string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`

	MaxSizeMB  int  `json:"max_size_mb" yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `json:"max_backups" yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `json:"max_age_days" yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `json:"compress" yaml:"compress" mapstructure:"compress"`
}

// SearchConfig holds default search behaviour.
type SearchConfig struct {
	// NoHierarchy disables prefix matching of colon-delimited tags by default.
	NoHierarchy bool `json:"no_hierarchy" yaml:"no_hierarchy" mapstructure:"no_hierarchy"`

	// TagMode is the default combination mode for multiple tags (all or any).
	TagMode string `json:"tag_mode" yaml:"tag_mode" mapstructure:"tag_mode"`
}

// Config groups all tagindex settings.
type Config struct {
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Schema  SchemaConfig  `json:"schema" yaml:"schema" mapstructure:"schema"`
	Filters FiltersConfig `json:"filters" yaml:"filters" mapstructure:"filters"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
}
