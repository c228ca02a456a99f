// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

/*
Package services provides suture.Service wrappers for Bibliotheca components.

This package adapts existing application components to the suture v4 supervision
model, translating their lifecycle patterns (ListenAndServe, RunWithContext,
periodic tickers) into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation into the Serve pattern
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Event Hub (EventHubService):
  - Wraps events.Hub with context support
  - Handles client connection cleanup on shutdown
  - Delegates to the hub's own RunWithContext loop

Recommendation Trainer (TrainerService):
  - Rebuilds genre profiles on startup and on a configured interval
  - A zero or negative interval disables periodic retraining
  - Training failures are logged and retried on the next cycle

# Usage Example

Creating and registering services:

	import (
	    "net/http"
	    "time"

	    "github.com/tomtom215/bibliotheca/internal/supervisor"
	    "github.com/tomtom215/bibliotheca/internal/supervisor/services"
	)

	func setupSupervisor(server *http.Server, hub *events.Hub, engine *recommend.Engine) {
	    tree, _ := supervisor.NewSupervisorTree(logger, config)

	    // HTTP server with 10s shutdown timeout
	    httpSvc := services.NewHTTPServerService(server, 10*time.Second)
	    tree.AddAPIService(httpSvc)

	    // Catalog event hub
	    hubSvc := services.NewEventHubService(hub)
	    tree.AddIndexService(hubSvc)

	    // Periodic profile retraining
	    trainerSvc := services.NewTrainerService(engine, trainerCfg, log)
	    tree.AddIndexService(trainerSvc)

	    // Start supervision
	    tree.Serve(ctx)
	}

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

# Service Identification

All services implement fmt.Stringer for logging:

	func (s *HTTPServerService) String() string {
	    return "http-server"
	}

Suture uses this for log messages:

	INFO http-server: starting
	INFO http-server: stopped
	ERROR http-server: restarting after failure

# Thread Safety

All service wrappers are safe for concurrent use:
  - State is protected by mutexes where needed
  - Context cancellation is handled atomically
  - Multiple Serve calls are not supported (undefined behavior)

# See Also

  - internal/supervisor: SupervisorTree that manages these services
  - github.com/thejerf/suture/v4: Underlying supervision library
  - internal/events: Event hub implementation
  - internal/recommend: Recommendation engine implementation
*/
package services
