// Cadence - Hybrid Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package eventprocessor moves rebuild requests out of the recommendation
// request path using Watermill.
//
// When the engine runs in async rebuild mode a cold-start recommendation
// appends the user's seeds to the interaction log and then publishes a
// RebuildRequested event instead of refitting the model inline:
//
//	┌──────────────┐  ScheduleRebuild  ┌─────────────────┐
//	│    Engine    │──────────────────▶│      Queue      │
//	│ (cold start) │                   │ (gochannel pub) │
//	└──────────────┘                   └────────┬────────┘
//	                                            │ recommend.rebuild
//	                                            ▼
//	                                   ┌─────────────────┐
//	                                   │     Router      │
//	                                   │ Recoverer/Retry │
//	                                   └────────┬────────┘
//	                                            │
//	                                            ▼
//	                                   ┌─────────────────┐
//	                                   │ RebuildHandler  │
//	                                   │ RebuildSince()  │
//	                                   └─────────────────┘
//
// Requests are coalesced by the engine: a rebuild that started after a
// request was made already covers the events appended before it, so a
// burst of cold starts produces one or two refits rather than one per
// request.
//
// The queue is in-process and not persistent. A request published while no
// router is subscribed is dropped; the interactions it refers to are
// already in the log and the next rebuild picks them up.
package eventprocessor
