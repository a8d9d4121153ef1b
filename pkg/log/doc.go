// Package log is a small wrapper around the standard library logger used by
// every minigrep component.
//
// # Key Features
//
//   - Named loggers via ForService(name), e.g. "api" or "serve"
//   - Every line carries a `[name>]` prefix
//   - Level helpers: Infof, Warnf, Errorf, Debugf
//   - Debug output enabled globally (SetGlobalDebug, the --debug flag) or per
//     service (EnableDebugFor / DisableDebugFor)
//   - A single output writer (SetOutput) shared by all loggers
//   - An optional rotating log file (SetupFile) next to stderr
//
// # Usage
//
//	l := log.ForService("api")
//	l.Infof("listening on %s", addr)
//	l.Debugf("request body: %d bytes", n)
//
// # Output
//
// Logs go to stderr by default. Search results are written to stdout by the
// CLI, so the two never mix.
//
//	closer, err := log.SetupFile(log.FileConfig{Path: "/var/log/minigrep.log"})
//	if err != nil {
//		return err
//	}
//	defer closer.Close()
//
// # Testing
//
// Tests can redirect output with SetOutput(&buf) and assert on the contents.
//
// All exported functions are safe for concurrent use.
package log
