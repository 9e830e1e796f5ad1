// Package log provides slog loggers that never print secrets.
//
// formbuilder handles anti-forgery tokens, session cookies and custom
// request headers. SecureHandler masks them by attribute key (cookie,
// x-csrftoken, authorization, anything containing "token" or "csrf") and
// by value shape (bearer and basic credentials, JWTs, long opaque tokens,
// raw Cookie headers carrying csrftoken) before the record is written.
//
//	logger := log.New(os.Stderr, verbose, log.FormatText)
//	slog.SetDefault(logger)
//
// The level is Warn by default and Debug in verbose mode.
package log
