package helpers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isometry/pro-checkin-webhook/internal/helpers"
	"github.com/isometry/pro-checkin-webhook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCase struct {
	Name     string
	Response models.Response
	Expected expectedResponse
}

type expectedResponse struct {
	StatusCode int
	Status     models.Status
	Message    string
	Header     string
}

func TestRespondHTTP(t *testing.T) {
	testCases := []testCase{
		{
			Name: "with_success_response",
			Response: models.Response{
				StatusCode: http.StatusOK,
				Status:     models.StatusSuccess,
				Message:    "Webhook processed for 'Jane Doe'. Actions attempted.",
			},
			Expected: expectedResponse{
				StatusCode: http.StatusOK,
				Status:     models.StatusSuccess,
				Message:    "Webhook processed for 'Jane Doe'. Actions attempted.",
				Header:     "application/json",
			},
		},
		{
			Name: "with_error_response_and_derived_status",
			Response: models.Response{
				StatusCode: http.StatusForbidden,
				Message:    "Signature verification failed",
			},
			Expected: expectedResponse{
				StatusCode: http.StatusForbidden,
				Status:     models.StatusError,
				Message:    "Signature verification failed",
				Header:     "application/json",
			},
		},
		{
			Name:     "with_empty_response",
			Response: models.Response{},
			Expected: expectedResponse{
				StatusCode: http.StatusOK,
				Status:     models.StatusSuccess,
				Header:     "application/json",
			},
		},
		{
			Name: "with_custom_header",
			Response: models.Response{
				StatusCode: http.StatusBadRequest,
				Message:    "Invalid JSON",
				Headers:    map[string]string{"X-Request-Id": "abc"},
			},
			Expected: expectedResponse{
				StatusCode: http.StatusBadRequest,
				Status:     models.StatusError,
				Message:    "Invalid JSON",
				Header:     "application/json",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rw := httptest.NewRecorder()

			helpers.RespondHTTP(tc.Response, rw)

			assert.Equal(t, tc.Expected.StatusCode, rw.Code)
			assert.Equal(t, tc.Expected.Header, rw.Header().Get("Content-Type"))
			for k, v := range tc.Response.Headers {
				assert.Equal(t, v, rw.Header().Get(k))
			}

			var body map[string]string
			require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
			assert.Equal(t, string(tc.Expected.Status), body["status"])
			assert.Equal(t, tc.Expected.Message, body["message"])
		})
	}
}
