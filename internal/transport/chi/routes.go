package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// SearchParams defines parameters for the partition search routes.
type SearchParams struct {
	// Q is the free-text query.
	Q *string `form:"q,omitempty" json:"q,omitempty"`
}

// SearchByTypeParams defines parameters for GET /search.
type SearchByTypeParams struct {
	// Q is the free-text query.
	Q *string `form:"q,omitempty" json:"q,omitempty"`
	// Type names the partition: themes, plugins, theme, plugin, all or empty.
	Type *string `form:"type,omitempty" json:"type,omitempty"`
}

// ProductID is the upstream product identifier.
type ProductID = int64

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// ListProducts handles GET /.
	ListProducts(w http.ResponseWriter, r *http.Request)
	// SearchThemes handles GET /themes.
	SearchThemes(w http.ResponseWriter, r *http.Request, params SearchParams)
	// SearchPlugins handles GET /plugins.
	SearchPlugins(w http.ResponseWriter, r *http.Request, params SearchParams)
	// Search handles GET /search.
	Search(w http.ResponseWriter, r *http.Request, params SearchByTypeParams)
	// GetProduct handles GET /{productID}.
	GetProduct(w http.ResponseWriter, r *http.Request, productID ProductID)
	// CreateDownloadLink handles POST /link/{productID}.
	CreateDownloadLink(w http.ResponseWriter, r *http.Request, productID ProductID)
	// HealthCheck handles GET /health.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
	// GetSyncStatus handles GET /sync/status.
	GetSyncStatus(w http.ResponseWriter, r *http.Request)
	// TriggerSync handles POST /sync.
	TriggerSync(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc wraps a single route handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ServerInterfaceWrapper converts requests to typed handler parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, middleware := range siw.HandlerMiddlewares {
		h = middleware(h)
	}
	h.ServeHTTP(w, r)
}

func (siw *ServerInterfaceWrapper) ListProducts(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.ListProducts))
}

func (siw *ServerInterfaceWrapper) bindSearchParams(w http.ResponseWriter, r *http.Request) (SearchParams, bool) {
	var params SearchParams
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &params.Q); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return params, false
	}
	return params, true
}

func (siw *ServerInterfaceWrapper) SearchThemes(w http.ResponseWriter, r *http.Request) {
	params, ok := siw.bindSearchParams(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchThemes(w, r, params)
	}))
}

func (siw *ServerInterfaceWrapper) SearchPlugins(w http.ResponseWriter, r *http.Request) {
	params, ok := siw.bindSearchParams(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.SearchPlugins(w, r, params)
	}))
}

func (siw *ServerInterfaceWrapper) Search(w http.ResponseWriter, r *http.Request) {
	var params SearchByTypeParams
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &params.Q); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "type", r.URL.Query(), &params.Type); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "type", Err: err})
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.Search(w, r, params)
	}))
}

func (siw *ServerInterfaceWrapper) bindProductID(w http.ResponseWriter, r *http.Request) (ProductID, bool) {
	var productID ProductID
	err := runtime.BindStyledParameterWithOptions("simple", "productID", chi.URLParam(r, "productID"), &productID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "productID", Err: err})
		return 0, false
	}
	return productID, true
}

func (siw *ServerInterfaceWrapper) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := siw.bindProductID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetProduct(w, r, productID)
	}))
}

func (siw *ServerInterfaceWrapper) CreateDownloadLink(w http.ResponseWriter, r *http.Request) {
	productID, ok := siw.bindProductID(w, r)
	if !ok {
		return
	}
	siw.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.CreateDownloadLink(w, r, productID)
	}))
}

func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.HealthCheck))
}

func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.Metrics))
}

func (siw *ServerInterfaceWrapper) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.GetSyncStatus))
}

func (siw *ServerInterfaceWrapper) TriggerSync(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, http.HandlerFunc(siw.Handler.TriggerSync))
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates an http.Handler with routing matching the catalog API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions mounts every route on options.BaseRouter (or a new router).
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err.Error())
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/", wrapper.ListProducts)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/themes", wrapper.SearchThemes)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/plugins", wrapper.SearchPlugins)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/search", wrapper.Search)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.HealthCheck)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/metrics", wrapper.Metrics)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/sync/status", wrapper.GetSyncStatus)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/sync", wrapper.TriggerSync)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/link/{productID}", wrapper.CreateDownloadLink)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/{productID}", wrapper.GetProduct)
	})

	return r
}
