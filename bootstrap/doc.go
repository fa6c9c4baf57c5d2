// Package bootstrap runs a flowpipe process through a uniform lifecycle:
// validated configuration, logger initialization, start/ready/stop hooks and
// graceful shutdown on SIGINT or SIGTERM.
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	app.OnReady(srv.Start)
//	app.OnStop(srv.Stop)
//	return app.Run(ctx)
//
// RunTask is the finite counterpart for one-shot commands: the task's
// context is canceled when a signal arrives.
package bootstrap
