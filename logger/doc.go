// Package logger provides structured logging for flowpipe using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Run identifiers placed
// on a context with ContextWithRunID are picked up by WithContext so every
// line of a run can be correlated.
//
//	log := logger.NewDefault("flowpipe").WithComponent("dag")
//	log.Info("run finished", logger.Fields(logger.FieldRunID, id))
package logger
