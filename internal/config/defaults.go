package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Archive.Workers == 0 {
		cfg.Archive.Workers = 4
	}
	if cfg.Output.Path == "" {
		cfg.Output.Path = "./processed"
	}
	if len(cfg.Output.Formats) == 0 {
		cfg.Output.Formats = []string{"csv", "parquet"}
	}
	if cfg.Output.Basename == "" {
		cfg.Output.Basename = "tweets_processed"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "./processed/tweets.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "./processed/index.bleve"
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}

	t := true
	if cfg.Clean.RemoveURLs == nil {
		cfg.Clean.RemoveURLs = &t
	}
	if cfg.Clean.RemoveEmails == nil {
		cfg.Clean.RemoveEmails = &t
	}
	if cfg.Clean.NormalizeUnicode == nil {
		cfg.Clean.NormalizeUnicode = &t
	}
	if cfg.Clean.PreserveEmojis == nil {
		cfg.Clean.PreserveEmojis = &t
	}
	// RemoveMentions, RemoveHashtags, RemoveNumbers default to false (nil is fine).
	if cfg.Media.Enabled == nil {
		cfg.Media.Enabled = &t
	}
	if cfg.Media.CopyByType == nil {
		cfg.Media.CopyByType = &t
	}
}

// BoolOr returns *p, or def when p is nil. Used when translating the
// pointer-valued clean/media settings into plain options.
func BoolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}
