// Package engine wires vidqueue's packages into one deployment from a
// vidqueue.Config. It sits above every subsystem package and below
// cmd/vidqueue.
//
// # Building an Engine
//
//	cfg, err := vidqueue.LoadConfig("vidqueue.yaml")
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
//	eng, err := engine.Build(cfg,
//	    engine.WithLogger(logger),
//	    engine.WithExtension(myExtension),
//	)
//
// Build selects the queue transport from cfg.Queue.Backend, creates the
// media API client, and assembles the default handler chain:
//
//	recover → tracing → metrics → logging → (WithMiddleware) → timeout
//
// # Running
//
//	eng.Start(ctx)                       // consumer loop
//	http.ListenAndServe(addr, eng.Handler())
//	eng.Stop(shutdownCtx)
//
// For a single cron-style pass, call eng.Consumer().Drain(ctx).
package engine
