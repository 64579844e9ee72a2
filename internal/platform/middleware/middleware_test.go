// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/userhub/internal/platform/constants"
	"github.com/taibuivan/userhub/internal/platform/ctxutil"
	"github.com/taibuivan/userhub/internal/platform/middleware"
)

type originList []string

func (list originList) AllowedOrigins() []string { return list }

var okHandler = http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
	writer.WriteHeader(http.StatusOK)
})

/*
TestRequestID_GeneratesAndPropagates verifies header echo and context injection.
*/
func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen = ctxutil.GetRequestID(request.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRequestID, "client-id")
	handler.ServeHTTP(httptest.NewRecorder(), request)
	assert.Equal(t, "client-id", seen)
}

/*
TestStructuredLogger_LogsFinishedRequest verifies the final access log entry.
*/
func TestStructuredLogger_LogsFinishedRequest(t *testing.T) {
	var buffer bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buffer, nil))

	handler := middleware.StructuredLogger(logger)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/user/user-information", nil))

	assert.Contains(t, buffer.String(), `"msg":"http_request_finished"`)
	assert.Contains(t, buffer.String(), `"status":404`)
	assert.Contains(t, buffer.String(), `"level":"WARN"`)
}

/*
TestRateLimit_RejectsBurstOverflow verifies the per-IP token bucket.
*/
func TestRateLimit_RejectsBurstOverflow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.RateLimit(ctx, 1, 2)(okHandler)

	statuses := make([]int, 0, 3)
	for range 3 {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRealIP, "203.0.113.7")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		statuses = append(statuses, recorder.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

	// Another client has its own bucket.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderXRealIP, "203.0.113.8")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

/*
TestPanicRecovery_ReturnsEnvelope converts panics to a 500 envelope.
*/
func TestPanicRecovery_ReturnsEnvelope(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
	handler := middleware.PanicRecovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"message":"An unexpected error occurred","success":false}`, recorder.Body.String())
}

/*
TestCORS covers allowed, rejected and pre-flight requests.
*/
func TestCORS(t *testing.T) {
	restricted := middleware.CORS(originList{"https://app.example"})(okHandler)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderOrigin, "https://app.example")
	recorder := httptest.NewRecorder()
	restricted.ServeHTTP(recorder, request)
	assert.Equal(t, "https://app.example", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", recorder.Header().Get("Access-Control-Allow-Credentials"))

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderOrigin, "https://evil.example")
	recorder = httptest.NewRecorder()
	restricted.ServeHTTP(recorder, request)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))

	open := middleware.CORS(originList{"*"})(okHandler)
	request = httptest.NewRequest(http.MethodOptions, "/", nil)
	request.Header.Set(constants.HeaderOrigin, "https://any.example")
	recorder = httptest.NewRecorder()
	open.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://any.example", recorder.Header().Get("Access-Control-Allow-Origin"))
}

/*
TestRealIP prefers proxy headers over the socket address.
*/
func TestRealIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXForwardedFor, "198.51.100.2, 10.0.0.1")
	assert.Equal(t, "198.51.100.2", middleware.RealIP(request))

	request.Header.Set(constants.HeaderXRealIP, "198.51.100.9")
	assert.Equal(t, "198.51.100.9", middleware.RealIP(request))
}
