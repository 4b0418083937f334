package helpers

import (
	"github.com/aws/aws-lambda-go/events"
)

// Request is the Lambda payload accepted by the runtime. API Gateway v2 and Function URL
// events share the embedded shape; v1 proxy events decode into the overlapping fields plus
// the top-level httpMethod.
type Request struct {
	events.APIGatewayV2HTTPRequest
	HTTPMethod string `json:"httpMethod,omitempty"`
}

// Method returns the request method from the v2 request context, falling back to the v1 field.
func (r Request) Method() string {
	if method := r.RequestContext.HTTP.Method; method != "" {
		return method
	}
	return r.HTTPMethod
}
