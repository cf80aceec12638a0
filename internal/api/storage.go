package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/JaimeStill/stager/pkg/handlers"
	"github.com/JaimeStill/stager/pkg/routes"
	"github.com/JaimeStill/stager/pkg/storage"
)

// storageHandler serves cycle artifacts (captures, previews, narrations,
// product images) by blob key.
type storageHandler struct {
	store  storage.System
	logger *slog.Logger
}

func newStorageHandler(store storage.System, logger *slog.Logger) *storageHandler {
	return &storageHandler{
		store:  store,
		logger: logger.With("handler", "storage"),
	}
}

func (h *storageHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/storage",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/download/{key...}", Handler: h.download},
			{Method: "GET", Pattern: "/{key...}", Handler: h.view},
		},
	}
}

func (h *storageHandler) download(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "attachment")
}

func (h *storageHandler) view(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "inline")
}

func (h *storageHandler) serve(w http.ResponseWriter, r *http.Request, disposition string) {
	key := r.PathValue("key")

	result, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(
			w, h.logger,
			storage.MapHTTPStatus(err), err,
		)
		return
	}
	defer result.Body.Close()

	w.Header().Set("Content-Type", result.ContentType)

	if result.ContentLength > 0 {
		w.Header().Set(
			"Content-Length",
			strconv.FormatInt(result.ContentLength, 10),
		)
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("%s; filename=%q", disposition, path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, result.Body)
}
