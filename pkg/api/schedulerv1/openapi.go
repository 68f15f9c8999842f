package schedulerv1

import _ "embed"

//go:embed openapi.json
var openAPISpec []byte

// OpenAPISpec returns the OpenAPI 3 document of the Connect HTTP API.
func OpenAPISpec() []byte {
	return openAPISpec
}
