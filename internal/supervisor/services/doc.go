// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package services adapts Cadence components to suture.Service.

  - HTTPServerService: ListenAndServe/Shutdown to Serve
  - RecommendService: loads the engine snapshot, then rebuilds on startup
    and on an interval when configured
  - RouterService: runs the watermill rebuild router until shutdown

Each wrapper depends on a small interface rather than the concrete type so
tests can supply fakes and the package does not import the engine.
*/
package services
