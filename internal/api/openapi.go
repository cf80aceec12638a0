package api

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/stager/internal/config"
	"github.com/JaimeStill/stager/pkg/openapi"
	"github.com/JaimeStill/stager/pkg/routes"
)

// buildSpec describes every registered route and returns a handler serving
// the serialized document.
func buildSpec(cfg *config.Config, groups []routes.Group) (http.HandlerFunc, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	for _, g := range groups {
		if err := describe(spec, "", g); err != nil {
			return nil, err
		}
	}

	data, err := openapi.MarshalJSON(spec)
	if err != nil {
		return nil, err
	}
	return openapi.ServeSpec(data), nil
}

func describe(spec *openapi.Spec, parent string, g routes.Group) error {
	prefix := parent + g.Prefix
	tag := strings.Trim(prefix, "/")

	for _, r := range g.Routes {
		p := specPath(prefix + r.Pattern)

		op := &openapi.Operation{
			Summary:    r.Method + " " + p,
			Tags:       []string{tag},
			Parameters: pathParams(p),
			Responses:  responses(r.Method),
		}
		if r.Method == http.MethodGet && r.Pattern == "" {
			op.Parameters = append(op.Parameters,
				openapi.QueryParam("page", "integer"),
				openapi.QueryParam("page_size", "integer"),
			)
			op.Responses[http.StatusOK] = &openapi.Response{
				Description: "Page of results",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: openapi.SchemaRef("PageResult")},
				},
			}
		}

		if err := spec.AddOperation(r.Method, p, op); err != nil {
			return err
		}
	}

	for _, child := range g.Children {
		if err := describe(spec, prefix, child); err != nil {
			return err
		}
	}
	return nil
}

func responses(method string) map[int]*openapi.Response {
	rs := map[int]*openapi.Response{
		http.StatusOK:                  {Description: "Success"},
		http.StatusNotFound:            openapi.ResponseRef("NotFound"),
		http.StatusInternalServerError: openapi.ResponseRef("InternalFailure"),
	}
	switch method {
	case http.MethodPost:
		rs[http.StatusCreated] = &openapi.Response{Description: "Created"}
		rs[http.StatusBadRequest] = openapi.ResponseRef("BadRequest")
		rs[http.StatusConflict] = openapi.ResponseRef("Conflict")
		rs[http.StatusRequestEntityTooLarge] = openapi.ResponseRef("TooLarge")
		rs[http.StatusServiceUnavailable] = openapi.ResponseRef("Unavailable")
	case http.MethodPut:
		rs[http.StatusBadRequest] = openapi.ResponseRef("BadRequest")
		rs[http.StatusConflict] = openapi.ResponseRef("Conflict")
	case http.MethodDelete:
		rs[http.StatusNoContent] = &openapi.Response{Description: "Deleted"}
	}
	return rs
}

// specPath rewrites ServeMux wildcards to OpenAPI templates.
func specPath(pattern string) string {
	if pattern == "" {
		return "/"
	}
	return strings.ReplaceAll(pattern, "...}", "}")
}

func pathParams(p string) []*openapi.Parameter {
	var params []*openapi.Parameter
	for seg := range strings.SplitSeq(p, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := seg[1 : len(seg)-1]
		format := ""
		if name == "id" {
			format = "uuid"
		}
		params = append(params, openapi.PathParam(name, format))
	}
	return params
}
