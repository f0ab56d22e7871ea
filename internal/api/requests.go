// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/models"
	"github.com/tomtom215/verwerkingenlog/internal/query"
)

// errUnsupportedMediaType rejects non-JSON request bodies.
var errUnsupportedMediaType = errors.New("content type must be application/json")

// readJSONBody returns the raw request body. The body limit is enforced by
// the MaxBody middleware; exceeding it surfaces as *http.MaxBytesError.
func readJSONBody(r *http.Request) ([]byte, error) {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || (mt != "application/json" && !strings.HasSuffix(mt, "+json")) {
			return nil, errUnsupportedMediaType
		}
	}
	if r.Body == nil {
		return nil, models.NewValidationError("body", "request body is required")
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, models.NewValidationError("body", "request body is required")
	}
	return raw, nil
}

// parseFilter reads the shared list parameters: from, to, confidentiality,
// limit and cursor. Range and enum checks are left to the services.
func parseFilter(q url.Values) (models.Filter, error) {
	var f models.Filter
	var fields []models.FieldError

	parseTime := func(name string) time.Time {
		v := q.Get(name)
		if v == "" {
			return time.Time{}
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			fields = append(fields, models.FieldError{Field: name, Message: name + " must be an RFC 3339 timestamp"})
			return time.Time{}
		}
		return t.UTC()
	}
	f.From = parseTime("from")
	f.To = parseTime("to")

	f.Confidentiality = models.Confidentiality(q.Get("confidentiality"))
	f.Cursor = q.Get("cursor")

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			fields = append(fields, models.FieldError{Field: "limit", Message: "limit must be a positive integer"})
		} else {
			f.Limit = n
		}
	}

	if len(fields) > 0 {
		return models.Filter{}, &models.ValidationError{Fields: fields}
	}
	return f, nil
}

// parseSelector reads the list selectors of GET /actions.
func parseSelector(q url.Values) query.Selector {
	return query.Selector{
		Subject:           q.Get("subject"),
		ActivityID:        q.Get("activity"),
		ProcessedObjectID: q.Get("processedObject"),
		ProcessingID:      q.Get("processing"),
	}
}

// parseBool accepts the usual spellings of a boolean flag.
func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
