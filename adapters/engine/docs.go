package engine

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/declroute/declroute/core/openapi"
)

// Documentation paths. The JSON document and the rendered UI live at
// fixed sibling paths.
const (
	DocsPath     = "/docs"
	DocsSpecPath = "/docs/openapi.json"
)

// MountDocs implements app.Engine. The provider is called per request so
// the served document always reflects the registered routes.
func (e *Engine) MountDocs(provider func() *openapi.Spec) {
	docs := chi.NewRouter()

	docs.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, provider())
	})

	docs.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, DocsPath+"/index.html", http.StatusMovedPermanently)
	})

	docs.Handle("/*", httpSwagger.Handler(
		httpSwagger.URL(DocsSpecPath),
	))

	e.router.Mount(DocsPath, docs)
}
