package usercfg

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultBaseURL           = "http://localhost:8000/api"
	DefaultUpdateRepo        = "cardboard-dev/cardboard"
	defaultTimeoutSeconds    = 10
	defaultFetchRetries      = 2
	defaultPollSeconds       = 0
	defaultSequenceTimeoutMs = 500
)

func getDefaults() Config {
	retries := defaultFetchRetries
	poll := defaultPollSeconds
	t := true
	return Config{
		SchemaVersion:         CurrentSchemaVersion,
		BaseURL:               DefaultBaseURL,
		RequestTimeoutSeconds: defaultTimeoutSeconds,
		FetchRetries:          &retries,
		PollIntervalSeconds:   &poll,
		SequenceTimeoutMs:     defaultSequenceTimeoutMs,
		Markdown:              &t,
		UpdateRepo:            DefaultUpdateRepo,
	}
}

// Keys lists the keys understood by `config get`.
var Keys = []string{
	"schema_version",
	"base_url",
	"web_url",
	"request_timeout_seconds",
	"fetch_retries",
	"poll_interval_seconds",
	"sequence_timeout_ms",
	"markdown",
	"update_repo",
}

// Get returns the value of key as it would be written in the config file.
func Get(config Config, key string) (string, error) {
	switch key {
	case "schema_version":
		return strconv.Itoa(config.SchemaVersion), nil
	case "base_url":
		return config.BaseURL, nil
	case "web_url":
		return config.BoardWebURL(), nil
	case "request_timeout_seconds":
		return strconv.Itoa(config.RequestTimeoutSeconds), nil
	case "fetch_retries":
		return strconv.Itoa(config.Retries()), nil
	case "poll_interval_seconds":
		return strconv.Itoa(int(config.PollInterval().Seconds())), nil
	case "sequence_timeout_ms":
		return strconv.Itoa(config.SequenceTimeoutMs), nil
	case "markdown":
		return strconv.FormatBool(config.MarkdownEnabled()), nil
	case "update_repo":
		return config.UpdateRepo, nil
	}
	return "", fmt.Errorf("unknown key: %s (available keys: %s)", key, strings.Join(Keys, ", "))
}

// Set validates value and stores it under key.
func Set(config *Config, key, value string) error {
	switch key {
	case "base_url", "web_url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("invalid URL: %s (must start with http:// or https://)", value)
		}
		if key == "base_url" {
			config.BaseURL = value
		} else {
			config.WebURL = value
		}
	case "request_timeout_seconds", "sequence_timeout_ms":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer, got %q", key, value)
		}
		if key == "request_timeout_seconds" {
			config.RequestTimeoutSeconds = n
		} else {
			config.SequenceTimeoutMs = n
		}
	case "fetch_retries", "poll_interval_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
		}
		if key == "fetch_retries" {
			config.FetchRetries = &n
		} else {
			config.PollIntervalSeconds = &n
		}
	case "markdown":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("markdown must be true or false, got %q", value)
		}
		config.Markdown = &b
	case "update_repo":
		if strings.Count(value, "/") != 1 {
			return fmt.Errorf("update_repo must look like owner/name, got %q", value)
		}
		config.UpdateRepo = value
	case "schema_version":
		return fmt.Errorf("key 'schema_version' cannot be set; use 'cardboard config migrate'")
	default:
		return fmt.Errorf("unknown key: %s (settable keys: %s)", key, strings.Join(Keys[1:], ", "))
	}
	return nil
}
