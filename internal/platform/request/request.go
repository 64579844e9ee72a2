// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It keeps body decoding and multipart handling consistent across handlers so
that malformed input always surfaces as a VALIDATION_ERROR.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/validate"
)

// maxJSONBody caps JSON payloads. Account payloads are a handful of short strings.
const maxJSONBody = 64 << 10

/*
DecodeJSON reads the request body and decodes it into the target structure.

An empty body decodes to the zero value so that field validation, not the
decoder, reports the missing fields.

Parameters:
  - writer: http.ResponseWriter (used to cap the body size)
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	if request.Body == nil {
		return nil
	}

	body := http.MaxBytesReader(writer, request.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
FormFile extracts a single uploaded file from a multipart request.

Parameters:
  - writer: http.ResponseWriter
  - request: *http.Request
  - field: string (Form field name)
  - maxBytes: int64 (Upper bound for the whole request body)

Returns:
  - multipart.File: The open upload, closed by the caller
  - *multipart.FileHeader: Name and size as reported by the client
  - error: VALIDATION_ERROR when the form is malformed, too large or lacks the field
*/
func FormFile(writer http.ResponseWriter, request *http.Request, field string, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {

	// Leave headroom for the multipart framing around the file itself
	request.Body = http.MaxBytesReader(writer, request.Body, maxBytes+(1<<20))

	if err := request.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apperr.ValidationError("Image is too large",
				apperr.FieldError{Field: field, Message: "file exceeds the upload limit"})
		}
		return nil, nil, apperr.ValidationError("Invalid multipart form",
			apperr.FieldError{Field: field, Message: "expected multipart/form-data"})
	}

	file, header, err := request.FormFile(field)
	if err != nil {
		return nil, nil, apperr.ValidationError("Image is required",
			apperr.FieldError{Field: field, Message: "is required"})
	}

	if header.Size > maxBytes {
		_ = file.Close()
		return nil, nil, apperr.ValidationError("Image is too large",
			apperr.FieldError{Field: field, Message: "file exceeds the upload limit"})
	}

	return file, header, nil
}
