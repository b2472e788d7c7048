// Package logger wraps zap for the notifier binaries:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing for the config file and the --log-level flag,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Services take a context and pull the logger out of it, so a component name
// set once by the poll loop or the HTTP API follows every log line below it.
package logger
