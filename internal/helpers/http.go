package helpers

import (
	"encoding/json"
	"net/http"

	"github.com/isometry/pro-checkin-webhook/internal/models"
)

type httpResponse struct {
	Status  models.Status `json:"status"`
	Message string        `json:"message"`
}

// EncodeResponse renders the response as a `{status, message}` JSON document.
// A zero status code is reported as 200; a missing status is derived from the code.
func EncodeResponse(response models.Response) (int, []byte) {
	statusCode := response.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	status := response.Status
	if status == "" {
		status = models.StatusSuccess
		if statusCode >= http.StatusBadRequest {
			status = models.StatusError
		}
	}

	body, _ := json.Marshal(httpResponse{Status: status, Message: response.Message})
	return statusCode, body
}

// RespondHTTP writes the encoded response to rw.
func RespondHTTP(response models.Response, rw http.ResponseWriter) {
	statusCode, body := EncodeResponse(response)
	rw.Header().Set("Content-Type", "application/json")
	for k, v := range response.Headers {
		rw.Header().Set(k, v)
	}
	rw.WriteHeader(statusCode)
	_, _ = rw.Write(body)
}
