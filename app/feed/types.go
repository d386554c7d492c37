package feed

import (
	"time"
)

// Config is one feed definition loaded from the feeds directory.
type Config struct {
	Name     string `yaml:"-"` // derived from the filename
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	Enabled  bool   `yaml:"enabled"`
}

// Item is the minimal field set the aggregation pipeline consumes from a
// feed entry. Items are ephemeral and never persisted as-is.
type Item struct {
	Title       string
	Link        string
	Description string
	PubDate     *time.Time
}
