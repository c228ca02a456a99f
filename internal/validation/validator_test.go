// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package validation

import (
	"strings"
	"testing"
)

type bookRequest struct {
	ID     string `validate:"required,notblank"`
	Title  string `validate:"required,notblank"`
	Author string `validate:"required,notblank"`
	Year   int    `validate:"gte=0,lte=2100"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()

	req := bookRequest{ID: "B01", Title: "Learning Go", Author: "Jon Bodner", Year: 2021}
	if err := ValidateStruct(&req); err != nil {
		t.Errorf("expected valid struct, got: %v", err)
	}
}

func TestValidateStructRequired(t *testing.T) {
	t.Parallel()

	req := bookRequest{Title: "Learning Go", Author: "Jon Bodner", Year: 2021}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for missing ID")
	}

	errs := err.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), err)
	}
	if errs[0].Field() != "ID" {
		t.Errorf("Field = %q, want ID", errs[0].Field())
	}
	if errs[0].Tag() != "required" {
		t.Errorf("Tag = %q, want required", errs[0].Tag())
	}
}

func TestValidateStructNotBlank(t *testing.T) {
	t.Parallel()

	req := bookRequest{ID: "   ", Title: "Learning Go", Author: "Jon Bodner", Year: 2021}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for blank ID")
	}

	errs := err.Errors()
	if len(errs) != 1 || errs[0].Tag() != "notblank" {
		t.Fatalf("expected single notblank error, got: %v", err)
	}
	if !strings.Contains(errs[0].Error(), "must not be blank") {
		t.Errorf("unexpected message: %s", errs[0].Error())
	}
}

func TestValidateStructRange(t *testing.T) {
	t.Parallel()

	req := bookRequest{ID: "B01", Title: "T", Author: "A", Year: 3000}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for out-of-range year")
	}

	errs := err.Errors()
	if errs[0].Tag() != "lte" || errs[0].Param() != "2100" {
		t.Errorf("unexpected error: tag=%s param=%s", errs[0].Tag(), errs[0].Param())
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	t.Parallel()

	req := bookRequest{ID: "B01", Title: "", Author: "A", Year: 2000}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Title" {
		t.Errorf("Details.field = %v, want Title", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	t.Parallel()

	req := bookRequest{Year: -5}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation errors")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}

	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details.fields has unexpected type %T", apiErr.Details["fields"])
	}
	if len(fields) < 2 {
		t.Errorf("expected multiple field errors, got %d", len(fields))
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("expected combined message, got: %s", apiErr.Message)
	}
}
