//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

// MountSwagger serves the OpenAPI document at /swagger/*, generated from
// cmd/modelrtd/docs.go's swag annotations via `swag init` (not committed;
// run before building with -tags=swagger). Gated behind the swagger
// build tag so production images don't ship the UI assets unless asked.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.WrapHandler)
}
