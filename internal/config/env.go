package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every textcrawl environment variable.
const EnvPrefix = "TEXTCRAWL_"

// ApplyEnv overrides cfg with environment variables read through lookup
// (usually os.LookupEnv).
//
// PORT is honoured for compatibility with hosting platforms that inject
// it; TEXTCRAWL_PORT takes precedence over it.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("PORT"); ok {
		if err := setInt(&cfg.Port, "PORT", v); err != nil {
			return err
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"PORT", &cfg.Port},
		{"CONCURRENCY", &cfg.Concurrency},
		{"RETRIES", &cfg.Retries},
		{"MAX_DEPTH", &cfg.MaxDepth},
		{"MAX_PAGES", &cfg.MaxPages},
		{"MAX_REDIRECTS", &cfg.MaxRedirects},
	}
	for _, e := range ints {
		if v, ok := get(EnvPrefix + e.name); ok {
			if err := setInt(e.dst, EnvPrefix+e.name, v); err != nil {
				return err
			}
		}
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"TIMEOUT", &cfg.Timeout},
		{"RETRY_BACKOFF", &cfg.RetryBackoff},
		{"CRAWL_DELAY", &cfg.CrawlDelay},
	}
	for _, e := range durations {
		if v, ok := get(EnvPrefix + e.name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, EnvPrefix+e.name, v, err)
			}
			*e.dst = d
		}
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"OUTPUT_DIR", &cfg.OutputDir},
		{"USER_AGENT", &cfg.UserAgent},
		{"PROXY", &cfg.ProxyAddress},
		{"DB_DIR", &cfg.DBDir},
		{"LOG_FILE", &cfg.LogFile},
	}
	for _, e := range strs {
		if v, ok := get(EnvPrefix + e.name); ok {
			*e.dst = v
		}
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"SAME_HOST", &cfg.SameHost},
		{"SAVE_TO_DB", &cfg.SaveToDB},
		{"VERBOSE", &cfg.Verbose},
		{"LOG_JSON", &cfg.LogJSON},
	}
	for _, e := range bools {
		if v, ok := get(EnvPrefix + e.name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, EnvPrefix+e.name, v, err)
			}
			*e.dst = b
		}
	}

	if v, ok := get(EnvPrefix + "MAX_BODY_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sMAX_BODY_SIZE=%q: %v", ErrInvalidEnv, EnvPrefix, v, err)
		}
		cfg.MaxBodySize = n
	}

	if v, ok := get(EnvPrefix + "SEEDS"); ok {
		cfg.Seeds = splitList(v)
	}

	return nil
}

func setInt(dst *int, name, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, name, v, err)
	}
	*dst = n
	return nil
}

// splitList splits a comma or whitespace separated list.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
}
