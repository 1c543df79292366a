package devserver

import (
	"net/http"

	"github.com/jrsteele09/go-erp-client/tenantclient"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+tenantclient.LoginPath, ChainMiddleware(s.LoginHandler(), s.TenantMiddleware(false)...))
	s.RegisterRouteHandler("POST "+tenantclient.TenantRefreshPath, ChainMiddleware(s.TenantRefreshHandler(), s.TenantMiddleware(false)...))
	s.RegisterRouteHandler("POST "+tenantclient.GlobalRefreshPath, ChainMiddleware(s.GlobalRefreshHandler(), s.APIMiddleware()...))

	// TENANT RESOURCES
	for _, spec := range collectionSpecs {
		collection := spec.path + "{$}"
		item := spec.path + "{id}/{$}"
		s.RegisterRouteHandler("GET "+collection, ChainMiddleware(s.ListHandler(spec), s.TenantMiddleware(true)...))
		s.RegisterRouteHandler("POST "+collection, ChainMiddleware(s.CreateHandler(spec), s.TenantMiddleware(true)...))
		s.RegisterRouteHandler("GET "+item, ChainMiddleware(s.GetHandler(spec), s.TenantMiddleware(true)...))
		s.RegisterRouteHandler("PUT "+item, ChainMiddleware(s.UpdateHandler(spec, false), s.TenantMiddleware(true)...))
		s.RegisterRouteHandler("PATCH "+item, ChainMiddleware(s.UpdateHandler(spec, true), s.TenantMiddleware(true)...))
		s.RegisterRouteHandler("DELETE "+item, ChainMiddleware(s.DeleteHandler(spec), s.TenantMiddleware(true)...))
		if spec.workflow {
			s.RegisterRouteHandler("POST "+spec.path+"{id}/{action}/{$}", ChainMiddleware(s.ActionHandler(spec), s.TenantMiddleware(true)...))
		}
	}

	// CORS preflight for every path
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
}
