// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package services adapts Motortrack components to suture.Service.

	HTTPServerService     *http.Server, ListenAndServe/Shutdown
	SyncSchedulerService  *sync.Engine, Start/Stop
	RunnerService         websocket.Hub and websocket.EventBridge, RunWithContext

Every wrapper returns ctx.Err() on a clean shutdown and a wrapped error on
failure, which is what suture uses to decide on a restart. String() names
the service in supervisor logs.
*/
package services
