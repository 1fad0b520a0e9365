// Lectern - Scholarly Article Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package validation provides struct validation using go-playground/validator v10.
//
// A thread-safe singleton validator caches struct information and carries
// two custom tags:
//   - surface: a homepage surface name (recent, featured, popular, trending)
//   - weekday: an English weekday name, full or abbreviated
//
// Both API query parameters and the application configuration are validated
// through it.
//
// # Usage
//
//	type listRequest struct {
//	    Limit int `validate:"min=1,max=100"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Error Messages
//
//	required   -> "ArticleID is required"
//	min=1      -> "Limit must be at least 1"
//	max=100    -> "Limit must be at most 100"
//	oneof=a b  -> "Driver must be one of: a b"
//	surface    -> "Surface must be one of: recent featured popular trending"
package validation
