// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints, for both successful and error responses.
//
// Status is "success" or "error"; Error is populated only for errors.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing information for observability.
// Query times are fractional milliseconds; catalog lookups finish in
// microseconds and would always round to zero as integers.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS float64   `json:"query_time_ms,omitempty"`
}

// APIError is a structured error payload with a machine-readable code.
//
// Codes used by this service: VALIDATION_ERROR, NOT_FOUND, DUPLICATE_ID,
// CHECKOUT_FAILED, CHECKIN_FAILED, LOAD_ERROR, AUTHENTICATION_ERROR,
// RECOMMENDATION_ERROR, INVALID_JSON, SERVICE_UNAVAILABLE, INTERNAL_ERROR.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
