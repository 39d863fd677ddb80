// Package http provides http transport for the actors API
package http

import (
	"io"
	stdhttp "net/http"
	"strconv"

	"tidepool/internal/modkit/httpkit"
	perr "tidepool/internal/platform/errors"
	logdomain "tidepool/internal/services/activitylog/domain"
	"tidepool/internal/services/api/actors/domain"
	fdomain "tidepool/internal/services/follow/domain"
	"tidepool/internal/services/inbox"
	resdomain "tidepool/internal/services/resolver/domain"
)

const maxInboxBody = 1 << 20

// Ports are the service ports the actors API rides on
type Ports struct {
	Resolver resdomain.ResolverPort
	Engine   fdomain.EnginePort
	Log      logdomain.LogPort
	Inbox    *inbox.Dispatcher
}

// Register mounts actors endpoints on the given router
func Register(r httpkit.Router, p Ports) {
	h := &handlers{ports: p}

	httpkit.Get(r, "/{handle}", h.getActor)
	httpkit.Get(r, "/{handle}/activities", h.listActivities)
	httpkit.PostJSON[domain.ToggleInput](r, "/{username}/activity", h.postActivity)
	httpkit.PostRaw(r, "/{username}/inbox", h.postInbox)
}

type handlers struct{ ports Ports }

// @Summary Resolve an actor by handle
// @Tags Actors
// @Produce json
// @Param handle path string true "Handle, local (alice) or remote (bob@remote.example)"
// @Success 200 {object} resdomain.ActorDescriptor "ok"
// @Router /actors/{handle} [get]
func (h *handlers) getActor(r *stdhttp.Request) (any, error) {
	return h.ports.Resolver.Resolve(r.Context(), httpkit.URLParam(r, "handle"))
}

// @Summary List logged activities touching an actor
// @Tags Actors
// @Produce json
// @Param handle path string true "Handle"
// @Param limit query int false "Max rows"
// @Success 200 {array} logdomain.Entry "ok"
// @Router /actors/{handle}/activities [get]
func (h *handlers) listActivities(r *stdhttp.Request) (any, error) {
	d, err := h.ports.Resolver.Resolve(r.Context(), httpkit.URLParam(r, "handle"))
	if err != nil {
		return nil, err
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, _ = strconv.Atoi(s)
	}
	entries, err := h.ports.Log.ListForActor(r.Context(), d.ID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []logdomain.Entry{}
	}
	return entries, nil
}

// @Summary Follow or unfollow a target on behalf of a local actor
// @Tags Actors
// @Accept json
// @Produce json
// @Param username path string true "Local username"
// @Param payload body domain.ToggleInput true "Toggle"
// @Success 200 {object} fdomain.Outcome "ok"
// @Router /actors/{username}/activity [post]
func (h *handlers) postActivity(r *stdhttp.Request, in domain.ToggleInput) (any, error) {
	action, err := fdomain.ParseAction(in.Activity)
	if err != nil {
		return nil, err
	}
	return h.ports.Engine.Toggle(r.Context(), httpkit.URLParam(r, "username"), in.Handle, action)
}

// @Summary Receive a federation activity on a local actor's inbox
// @Tags Actors
// @Accept json
// @Param username path string true "Local username"
// @Success 202 "accepted"
// @Router /actors/{username}/inbox [post]
func (h *handlers) postInbox(r *stdhttp.Request) httpkit.Response {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInboxBody))
	if err != nil {
		return httpkit.Error(perr.Validationf("unreadable inbox body"))
	}
	if err := h.ports.Inbox.Process(r.Context(), body); err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Accepted(nil)
}
