// Package logger is the zerolog-backed structured logger used across
// fluxmux. Lines go to stderr unless configured otherwise, keeping stdout
// for records written by the stdout sink.
//
//	logging:
//	  level: debug
//	  format: json
//
// Components derive tagged loggers and pass fields as maps:
//
//	log := base.WithComponent("bridge").WithContext(ctx)
//	log.Info("run finished", logger.Fields("delivered", n))
package logger
