// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Envelope
//
// Every response, success or failure, is written as the same JSON envelope:
//
//	{"message": "...", "success": true, "data": {...}}
//	{"message": "...", "success": false, "error": {...}}
//
// success mirrors the status code (true below 400). data and error are omitted
// when there is nothing to send.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/userhub/internal/platform/apperr"
	"github.com/taibuivan/userhub/internal/platform/ctxkey"
)

// Envelope is the JSON body of every API response.
type Envelope struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// Send writes the standard envelope for the given status, message and data.
func Send(writer http.ResponseWriter, statusCode int, message string, data any) {
	JSON(writer, statusCode, Envelope{
		Message: message,
		Success: statusCode < http.StatusBadRequest,
		Data:    data,
	})
}

// OK writes a 200 OK envelope.
func OK(writer http.ResponseWriter, message string, data any) {
	Send(writer, http.StatusOK, message, data)
}

// Created writes a 201 Created envelope.
func Created(writer http.ResponseWriter, message string, data any) {
	Send(writer, http.StatusCreated, message, data)
}

// Error converts any Go error into the failure envelope.
//
// Errors that are not an [*apperr.AppError] become INTERNAL_ERROR; their detail
// is logged with the request-scoped logger and never sent to the client.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", getRequestIDFromContext(request)),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= http.StatusInternalServerError {
		logger := getLoggerFromContext(request)
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", getRequestIDFromContext(request)),
			slog.Any("cause", appError.Cause),
		)
	}

	envelope := Envelope{Message: appError.Message, Success: false}
	if fields := appError.Fields(); fields != nil {
		envelope.Error = fields
	}

	JSON(writer, appError.HTTPStatus, envelope)
}

// getLoggerFromContext extracts the per-request logger.
func getLoggerFromContext(request *http.Request) *slog.Logger {
	if logger, ok := request.Context().Value(ctxkey.KeyLogger).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}

// getRequestIDFromContext extracts the X-Request-ID for log correlation.
func getRequestIDFromContext(request *http.Request) string {
	if id, ok := request.Context().Value(ctxkey.KeyRequestID).(string); ok {
		return id
	}
	return ""
}
