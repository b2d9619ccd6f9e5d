// Package config provides configuration structures and utilities for
// textcrawl. It defines crawl, storage, server and output settings, loads
// the .textcrawl YAML file, and applies environment overrides.
package config
