package api

import (
	"fmt"
	"net/http"

	"github.com/deepmap/oapi-codegen/pkg/runtime"
	"github.com/gorilla/mux"
)

// ListWorkOrdersParams are the query parameters of GET /api/work-orders.
type ListWorkOrdersParams struct {
	Hospital *string `form:"hospital,omitempty" json:"hospital,omitempty"`
	Year     *string `form:"year,omitempty" json:"year,omitempty"`
	Month    *string `form:"month,omitempty" json:"month,omitempty"`
	Service  *string `form:"service,omitempty" json:"service,omitempty"`
	Search   *string `form:"search,omitempty" json:"search,omitempty"`
	Page     *int    `form:"page,omitempty" json:"page,omitempty"`
}

// ServerInterface mirrors the operations of api.yaml.
type ServerInterface interface {
	// (GET /api/work-orders)
	ListWorkOrders(w http.ResponseWriter, r *http.Request, params ListWorkOrdersParams)
	// (POST /api/work-orders/{requestNo}/action-plan)
	SaveActionPlan(w http.ResponseWriter, r *http.Request, requestNo string)
	// (GET /api/stats)
	GetStats(w http.ResponseWriter, r *http.Request)
	// (GET /api/filter-options)
	GetFilterOptions(w http.ResponseWriter, r *http.Request)
	// (POST /api/reload)
	Reload(w http.ResponseWriter, r *http.Request)
	// (GET /api/export)
	ExportWorkOrders(w http.ResponseWriter, r *http.Request)
	// (GET /api/pending)
	ListPending(w http.ResponseWriter, r *http.Request)
	// (POST /api/pending/replay)
	ReplayPending(w http.ResponseWriter, r *http.Request)
	// (GET /api/connection)
	GetConnection(w http.ResponseWriter, r *http.Request)
	// (PUT /api/connection)
	SetConnection(w http.ResponseWriter, r *http.Request)
}

type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper binds request parameters before calling the
// handler.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

func (siw *ServerInterfaceWrapper) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	var params ListWorkOrdersParams
	query := r.URL.Query()

	for name, dest := range map[string]**string{
		"hospital": &params.Hospital,
		"year":     &params.Year,
		"month":    &params.Month,
		"service":  &params.Service,
		"search":   &params.Search,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
			return
		}
	}
	if err := runtime.BindQueryParameter("form", true, false, "page", query, &params.Page); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "page", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ListWorkOrders(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) SaveActionPlan(w http.ResponseWriter, r *http.Request) {
	var requestNo string
	err := runtime.BindStyledParameterWithLocation("simple", false, "requestNo", runtime.ParamLocationPath, mux.Vars(r)["requestNo"], &requestNo)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "requestNo", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SaveActionPlan(w, r, requestNo)
	})
}

func (siw *ServerInterfaceWrapper) GetStats(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetStats)
}

func (siw *ServerInterfaceWrapper) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetFilterOptions)
}

func (siw *ServerInterfaceWrapper) Reload(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Reload)
}

func (siw *ServerInterfaceWrapper) ExportWorkOrders(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ExportWorkOrders)
}

func (siw *ServerInterfaceWrapper) ListPending(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListPending)
}

func (siw *ServerInterfaceWrapper) ReplayPending(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ReplayPending)
}

func (siw *ServerInterfaceWrapper) GetConnection(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetConnection)
}

func (siw *ServerInterfaceWrapper) SetConnection(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.SetConnection)
}

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	var handler http.Handler = fn
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

type GorillaServerOptions struct {
	BaseURL          string
	BaseRouter       *mux.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func HandlerWithOptions(si ServerInterface, options GorillaServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = mux.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.HandleFunc(options.BaseURL+"/api/work-orders", wrapper.ListWorkOrders).Methods("GET")
	r.HandleFunc(options.BaseURL+"/api/work-orders/{requestNo}/action-plan", wrapper.SaveActionPlan).Methods("POST")
	r.HandleFunc(options.BaseURL+"/api/stats", wrapper.GetStats).Methods("GET")
	r.HandleFunc(options.BaseURL+"/api/filter-options", wrapper.GetFilterOptions).Methods("GET")
	r.HandleFunc(options.BaseURL+"/api/reload", wrapper.Reload).Methods("POST")
	r.HandleFunc(options.BaseURL+"/api/export", wrapper.ExportWorkOrders).Methods("GET")
	r.HandleFunc(options.BaseURL+"/api/pending", wrapper.ListPending).Methods("GET")
	r.HandleFunc(options.BaseURL+"/api/pending/replay", wrapper.ReplayPending).Methods("POST")
	r.HandleFunc(options.BaseURL+"/api/connection", wrapper.GetConnection).Methods("GET")
	r.HandleFunc(options.BaseURL+"/api/connection", wrapper.SetConnection).Methods("PUT")

	return r
}
