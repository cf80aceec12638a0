package location

import (
	"fmt"
	"os"
	"strconv"
)

// Config sets the default location used when nothing better is known.
type Config struct {
	Latitude  *float64 `toml:"latitude"`
	Longitude *float64 `toml:"longitude"`
	City      string   `toml:"city"`
	Country   string   `toml:"country"`
	Region    string   `toml:"region"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	Latitude  string
	Longitude string
	City      string
	Country   string
}

// Default returns the configured default as a UserLocation.
func (c *Config) Default() UserLocation {
	loc := UserLocation{
		City:    c.City,
		Country: c.Country,
		Region:  c.Region,
		Source:  SourceDefault,
	}
	if c.Latitude != nil {
		loc.Latitude = *c.Latitude
	}
	if c.Longitude != nil {
		loc.Longitude = *c.Longitude
	}
	return loc
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero overlay values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Latitude != nil {
		c.Latitude = overlay.Latitude
	}
	if overlay.Longitude != nil {
		c.Longitude = overlay.Longitude
	}
	if overlay.City != "" {
		c.City = overlay.City
	}
	if overlay.Country != "" {
		c.Country = overlay.Country
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
}

func (c *Config) loadDefaults() {
	if c.Latitude == nil {
		lat := 41.9028
		c.Latitude = &lat
	}
	if c.Longitude == nil {
		lon := 12.4964
		c.Longitude = &lon
	}
	if c.City == "" {
		c.City = "Rome"
	}
	if c.Country == "" {
		c.Country = "Italy"
	}
	if c.Region == "" {
		c.Region = "Lazio"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := getenv(env.Latitude); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = &f
		}
	}
	if v := getenv(env.Longitude); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = &f
		}
	}
	if v := getenv(env.City); v != "" {
		c.City = v
	}
	if v := getenv(env.Country); v != "" {
		c.Country = v
	}
}

func (c *Config) validate() error {
	if err := Validate(*c.Latitude, *c.Longitude); err != nil {
		return fmt.Errorf("default location: %w", err)
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
