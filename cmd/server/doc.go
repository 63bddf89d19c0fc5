// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Command server runs the Cadence recommendation HTTP service.

Startup order:

 1. Configuration: koanf v2 defaults, optional YAML file (-config or
    CONFIG_PATH), then environment variables
 2. Logging: zerolog, json or console
 3. Components: catalog (sqlite or duckdb, behind a circuit breaker), event
    log, snapshot store, result cache, engine, and in async mode the
    watermill rebuild queue
 4. Supervisor tree: model layer (snapshot load and scheduled rebuilds),
    messaging layer (rebuild consumer), api layer (HTTP)

SIGINT and SIGTERM stop the tree; the HTTP server drains for
server.shutdown_timeout and stores are closed afterwards.

Example:

	CATALOG_DSN=/data/catalog.db EVENTS_PATH=/data/interactions.csv \
	REBUILD_MODE=async ./server -config /etc/cadence/config.yaml
*/
package main
