// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (cookies, tokens, secrets)
//   - Masking of credentials embedded in logged URLs
//   - Text or JSON output, optionally to a rotating log file
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - Secret values detected by pattern matching (JWTs, bearer tokens, keys)
//   - Query parameters such as token, sig or password in crawled URLs
//
// Per-site cookies and headers from the config file pass through the
// fetcher's logs, so they are masked even in verbose mode.
//
// # Usage
//
//	logger, closer := log.New(log.Options{Verbose: true, File: "textcrawl.log"})
//	defer closer.Close()
//
//	logger.Warn("fetch failed",
//	    "url", "https://example.com/dl?token=abc", // token value is masked
//	    "kind", "Timeout",
//	)
package log
