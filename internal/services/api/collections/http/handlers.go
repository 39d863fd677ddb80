// Package http provides http transport for the collections API
package http

import (
	stdhttp "net/http"
	"strconv"

	"tidepool/internal/modkit/httpkit"
	coldomain "tidepool/internal/services/collections/domain"
)

// Ports are the service ports the collections API rides on
type Ports struct {
	Aggregator coldomain.AggregatorPort
}

// Register mounts collections endpoints on the given router
func Register(r httpkit.Router, p Ports) {
	h := &handlers{ports: p}

	httpkit.Get(r, "/{type}/{handle}", h.getCollection)
}

type handlers struct{ ports Ports }

// @Summary Aggregate an actor's followers or following collection
// @Tags Collections
// @Produce json
// @Param type path string true "Collection type" Enums(followers, following)
// @Param handle path string true "Handle, local or remote"
// @Param maxPages query int false "Page crawl bound"
// @Success 200 {object} coldomain.Aggregated "ok"
// @Router /collections/{type}/{handle} [get]
func (h *handlers) getCollection(r *stdhttp.Request) (any, error) {
	kind, err := coldomain.ParseKind(httpkit.URLParam(r, "type"))
	if err != nil {
		return nil, err
	}
	maxPages := 0
	if s := r.URL.Query().Get("maxPages"); s != "" {
		maxPages, _ = strconv.Atoi(s)
	}
	agg, err := h.ports.Aggregator.ForHandle(r.Context(), httpkit.URLParam(r, "handle"), kind, maxPages)
	if err != nil {
		return nil, err
	}
	if agg.Items == nil {
		agg.Items = []string{}
	}
	return agg, nil
}
