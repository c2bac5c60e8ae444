package api

import (
	"context"
	_ "embed"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

//go:embed api.yaml
var rawSpec []byte

// RawSpec is the OpenAPI document served at /static/api.yaml.
func RawSpec() []byte {
	return rawSpec
}

// GetSwagger parses the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(rawSpec)
	if err != nil {
		return nil, errors.Wrap(err, "loading api.yaml")
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, errors.Wrap(err, "validating api.yaml")
	}
	return doc, nil
}

// Register mounts the JSON API on r. Every operation is validated against
// the embedded document before it reaches a.
func Register(a *Api, r *mux.Router) error {
	doc, err := GetSwagger()
	if err != nil {
		return err
	}
	HandlerWithOptions(a, GorillaServerOptions{
		BaseRouter:       r,
		Middlewares:      []MiddlewareFunc{RequestValidator(doc, a.BadRequest)},
		ErrorHandlerFunc: a.BadRequest,
	})
	return nil
}

// RequestValidator checks requests against the operation matched by the
// gorilla route. Requests on routes missing from the document pass through.
func RequestValidator(doc *openapi3.T, onError func(w http.ResponseWriter, r *http.Request, err error)) MiddlewareFunc {
	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, ok := findRoute(doc, r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: mux.Vars(r),
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func findRoute(doc *openapi3.T, r *http.Request) (*routers.Route, bool) {
	current := mux.CurrentRoute(r)
	if current == nil {
		return nil, false
	}
	template, err := current.GetPathTemplate()
	if err != nil {
		return nil, false
	}
	pathItem := doc.Paths.Find(template)
	if pathItem == nil {
		return nil, false
	}
	operation := pathItem.GetOperation(r.Method)
	if operation == nil {
		return nil, false
	}
	return &routers.Route{
		Spec:      doc,
		Path:      template,
		PathItem:  pathItem,
		Method:    r.Method,
		Operation: operation,
	}, true
}
