// Package inbox dispatches activities received from remote servers
package inbox

import (
	"context"
	"encoding/json"

	"tidepool/internal/core/ap"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/platform/logger"
	logdomain "tidepool/internal/services/activitylog/domain"
)

// HandlerFunc processes one inbound activity of a known type
type HandlerFunc func(ctx context.Context, act ap.ActivityIn, raw json.RawMessage) error

// Dispatcher routes inbound activities by type
//
// Unknown types are logged and dropped rather than rejected; federation
// partners ship vocabularies we do not speak and that must not poison the inbox
type Dispatcher struct {
	alg      logdomain.LogPort
	log      logger.Logger
	handlers map[string]HandlerFunc
}

// New constructs the inbox dispatcher with the built-in handler table
func New(alg logdomain.LogPort) *Dispatcher {
	if alg == nil {
		panic("inbox.Dispatcher requires a non-nil LogPort")
	}
	d := &Dispatcher{alg: alg, log: *logger.Named("inbox")}
	d.handlers = map[string]HandlerFunc{
		ap.TypeFollow: d.handleFollow,
		ap.TypeUndo:   d.handleUndo,
		ap.TypeAccept: d.handleAccept,
	}
	return d
}

// Process parses raw and routes it to the handler for its type
func (d *Dispatcher) Process(ctx context.Context, raw []byte) error {
	var act ap.ActivityIn
	if err := json.Unmarshal(raw, &act); err != nil {
		return perr.JSONErrf("inbox payload is not valid JSON")
	}
	if act.Type == "" || act.Actor == "" {
		return perr.Validationf("inbox activity requires type and actor")
	}

	h, ok := d.handlers[act.Type]
	if !ok {
		d.log.Debug().Str("type", act.Type).Str("actor", act.Actor).Msg("dropping unhandled activity type")
		return nil
	}
	return h(ctx, act, raw)
}

func (d *Dispatcher) handleFollow(ctx context.Context, act ap.ActivityIn, raw json.RawMessage) error {
	if act.ID == "" || act.ObjectURI() == "" {
		return perr.Validationf("inbound follow requires id and object")
	}
	return d.alg.RecordReceived(ctx, logdomain.Entry{
		ID:        act.ID,
		Type:      act.Type,
		ActorURI:  act.Actor,
		ObjectURI: act.ObjectURI(),
		Raw:       raw,
	})
}

func (d *Dispatcher) handleUndo(ctx context.Context, act ap.ActivityIn, raw json.RawMessage) error {
	if act.ID == "" {
		return perr.Validationf("inbound undo requires an id")
	}
	if err := d.alg.RecordReceived(ctx, logdomain.Entry{
		ID:        act.ID,
		Type:      act.Type,
		ActorURI:  act.Actor,
		ObjectURI: act.ObjectURI(),
		Raw:       raw,
	}); err != nil {
		return err
	}

	// when the undo embeds the original follow, retire the pair it named
	var inner ap.ActivityIn
	if err := json.Unmarshal(act.Object, &inner); err != nil || inner.Type != ap.TypeFollow {
		return nil
	}
	if inner.Actor == "" || inner.ObjectURI() == "" {
		return nil
	}
	_, err := d.alg.RecordUndo(ctx, logdomain.Entry{
		ID:        act.ID,
		Type:      act.Type,
		ActorURI:  act.Actor,
		ObjectURI: act.ObjectURI(),
		Raw:       raw,
	}, inner.Actor, inner.ObjectURI())
	if perr.IsCode(err, perr.ErrorCodeNoActiveFollow) {
		// remote undid something we never recorded, nothing to retire
		d.log.Debug().Str("actor", act.Actor).Msg("undo for unknown follow")
		return nil
	}
	return err
}

func (d *Dispatcher) handleAccept(ctx context.Context, act ap.ActivityIn, raw json.RawMessage) error {
	if act.ID == "" {
		return nil
	}
	return d.alg.RecordReceived(ctx, logdomain.Entry{
		ID:        act.ID,
		Type:      act.Type,
		ActorURI:  act.Actor,
		ObjectURI: act.ObjectURI(),
		Raw:       raw,
	})
}
