package openapi

import "maps"

// NewComponents creates Components with the shared error schema and the
// error responses built on it.
func NewComponents() *Components {
	c := &Components{
		Schemas: map[string]*Schema{
			"Error": {
				Type: "object",
				Properties: map[string]*Schema{
					"error": {Type: "string", Description: "Error message"},
				},
			},
			"PageResult": {
				Type: "object",
				Properties: map[string]*Schema{
					"data":        {Type: "array", Items: &Schema{Type: "object"}},
					"total":       {Type: "integer"},
					"page":        {Type: "integer", Example: 1},
					"page_size":   {Type: "integer", Example: 20},
					"total_pages": {Type: "integer"},
				},
			},
		},
		Responses: make(map[string]*Response),
	}

	for name, desc := range map[string]string{
		"BadRequest":      "Invalid request",
		"NotFound":        "Resource not found",
		"Conflict":        "Busy or conflicting state",
		"TooLarge":        "Request body too large",
		"Unavailable":     "Service stopped or backend unavailable",
		"InternalFailure": "Unexpected failure",
	} {
		c.Responses[name] = errorResponse(desc)
	}
	return c
}

// AddSchemas merges the given schemas into the component schemas.
func (c *Components) AddSchemas(schemas map[string]*Schema) {
	maps.Copy(c.Schemas, schemas)
}

func errorResponse(desc string) *Response {
	return &Response{
		Description: desc,
		Content: map[string]*MediaType{
			"application/json": {Schema: SchemaRef("Error")},
		},
	}
}
