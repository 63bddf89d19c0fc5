// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package supervisor provides process supervision for the Cadence server using
suture v4.

The tree has three layers so a failure in one does not stop the others:

	RootSupervisor ("cadence")
	├── ModelSupervisor ("model-layer")
	│   └── RecommendService       snapshot load, startup and periodic rebuilds
	├── MessagingSupervisor ("messaging-layer")
	│   └── RouterService          rebuild queue consumer (rebuild mode async)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The API layer serves from whatever snapshot is published. Until the model
layer has loaded one, /health reports "starting" and recommendations fall
back to content-only answers.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddModelService(services.NewRecommendService(engine, cfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	errCh := tree.ServeBackground(ctx)
	<-ctx.Done()
	<-errCh

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning an error restarts the service subject to the failure threshold,
decay and backoff in TreeConfig. Returning after ctx is canceled is a
clean stop.

Supervisor events are logged through sutureslog, bridged to zerolog by
logging.NewSlogLogger.
*/
package supervisor
