// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package services

import (
	"context"
)

// ContextHub matches *events.Hub's RunWithContext method. The indirection
// keeps this package from importing the events package and lets tests use
// a mock hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// EventHubService wraps the catalog event hub as a supervised service.
//
// The hub's RunWithContext method already implements the suture.Service
// pattern, so this wrapper simply delegates to it and provides a name
// for logging.
//
// Example usage:
//
//	hub := events.NewHub(cfg.Events)
//	svc := services.NewEventHubService(hub)
//	tree.AddIndexService(svc)
type EventHubService struct {
	hub  ContextHub
	name string
}

// NewEventHubService creates a new event hub service wrapper.
func NewEventHubService(hub ContextHub) *EventHubService {
	return &EventHubService{
		hub:  hub,
		name: "event-hub",
	}
}

// Serve implements suture.Service.
//
// This method delegates to hub.RunWithContext which:
//  1. Processes client registration/unregistration and broadcasts
//  2. Returns when the context is canceled
//  3. Gracefully closes all clients on shutdown
//
// The method returns ctx.Err() on normal shutdown.
func (s *EventHubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer. Suture uses this name in log messages.
func (s *EventHubService) String() string {
	return s.name
}
