// Package service provides the follow engine implementation
package service

import (
	"context"
	"encoding/json"

	"tidepool/internal/core/ap"
	"tidepool/internal/core/fed"
	"tidepool/internal/core/handle"
	perr "tidepool/internal/platform/errors"
	"tidepool/internal/platform/logger"
	logdomain "tidepool/internal/services/activitylog/domain"
	deldomain "tidepool/internal/services/delivery/domain"
	"tidepool/internal/services/follow/domain"
	resdomain "tidepool/internal/services/resolver/domain"
)

// Svc implements domain.EnginePort
type Svc struct {
	res resdomain.ResolverPort
	alg logdomain.LogPort
	del deldomain.DelivererPort
	fed fed.Context
	log logger.Logger
}

var _ domain.EnginePort = (*Svc)(nil)

// New constructs the follow engine
func New(res resdomain.ResolverPort, alg logdomain.LogPort, del deldomain.DelivererPort, fc fed.Context) *Svc {
	if res == nil || alg == nil || del == nil {
		panic("follow.Service requires resolver, activitylog, and deliverer ports")
	}
	return &Svc{res: res, alg: alg, del: del, fed: fc, log: *logger.Named("follow")}
}

// Toggle follows or unfollows targetHandle on behalf of localUsername
//
// The activity is logged before delivery is attempted, and a delivery
// failure never unwinds the log: the relationship change is durable the
// moment the log write commits
func (s *Svc) Toggle(ctx context.Context, localUsername, targetHandle string, action domain.Action) (domain.Outcome, error) {
	h, err := handle.Parse(localUsername)
	if err != nil {
		return domain.Outcome{}, err
	}
	if !h.IsLocal() && h.Domain != s.fed.Domain {
		return domain.Outcome{}, perr.Validationf("actor %q is not local to this instance", localUsername)
	}

	local, err := s.res.EnsureLocal(ctx, h.Username, nil)
	if err != nil {
		return domain.Outcome{}, err
	}

	target, err := s.res.Resolve(ctx, targetHandle)
	if err != nil {
		return domain.Outcome{}, err
	}
	if target.ID == local.ID {
		return domain.Outcome{}, perr.Validationf("actor cannot follow itself")
	}
	if target.Source == resdomain.SourceRemote {
		if err := s.res.SaveRemote(ctx, target); err != nil {
			return domain.Outcome{}, err
		}
	}

	switch action {
	case domain.ActionFollow:
		return s.follow(ctx, h.Username, local, target)
	case domain.ActionUnfollow:
		return s.unfollow(ctx, h.Username, local, target)
	}
	return domain.Outcome{}, perr.Validationf("unknown action %q", action)
}

func (s *Svc) follow(
	ctx context.Context,
	username string,
	local, target resdomain.ActorDescriptor,
) (domain.Outcome, error) {
	id := ap.ActivityID(s.fed.Origin, username, ap.TypeFollow, local.ID, target.ID)
	doc := ap.Activity{
		AtContext: ap.Context,
		ID:        id,
		Type:      ap.TypeFollow,
		Actor:     local.ID,
		Object:    target.ID,
		To:        []string{target.ID},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return domain.Outcome{}, perr.Wrapf(err, perr.ErrorCodeJSON, "marshal follow activity")
	}

	if err := s.alg.RecordFollow(ctx, logdomain.Entry{
		ID:        id,
		Type:      ap.TypeFollow,
		ActorURI:  local.ID,
		ObjectURI: target.ID,
		Raw:       raw,
	}); err != nil {
		return domain.Outcome{}, err
	}

	return s.deliver(ctx, domain.Outcome{ActivityID: id, Type: ap.TypeFollow, TargetID: target.ID}, target, raw), nil
}

func (s *Svc) unfollow(
	ctx context.Context,
	username string,
	local, target resdomain.ActorDescriptor,
) (domain.Outcome, error) {
	// content-derived ids make the active follow's id computable without a lookup
	followID := ap.ActivityID(s.fed.Origin, username, ap.TypeFollow, local.ID, target.ID)
	undoID := ap.ActivityID(s.fed.Origin, username, ap.TypeUndo, local.ID, followID)

	doc := ap.Activity{
		AtContext: ap.Context,
		ID:        undoID,
		Type:      ap.TypeUndo,
		Actor:     local.ID,
		Object: ap.Activity{
			ID:     followID,
			Type:   ap.TypeFollow,
			Actor:  local.ID,
			Object: target.ID,
		},
		To: []string{target.ID},
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return domain.Outcome{}, perr.Wrapf(err, perr.ErrorCodeJSON, "marshal undo activity")
	}

	if _, err := s.alg.RecordUndo(ctx, logdomain.Entry{
		ID:        undoID,
		Type:      ap.TypeUndo,
		ActorURI:  local.ID,
		ObjectURI: followID,
		Raw:       raw,
	}, local.ID, target.ID); err != nil {
		return domain.Outcome{}, err
	}

	return s.deliver(ctx, domain.Outcome{ActivityID: undoID, Type: ap.TypeUndo, TargetID: target.ID}, target, raw), nil
}

// deliver posts to the target inbox and folds the result into the outcome.
// failures are logged and reported, never returned as errors
func (s *Svc) deliver(
	ctx context.Context,
	out domain.Outcome,
	target resdomain.ActorDescriptor,
	raw []byte,
) domain.Outcome {
	res, err := s.del.Deliver(ctx, target.DeliveryInbox(), raw)
	out.DeliveryStatus = res.StatusCode
	if err != nil {
		s.log.Warn().Err(err).Str("activity_id", out.ActivityID).Str("inbox", target.DeliveryInbox()).
			Msg("delivery failed, activity remains logged")
		return out
	}
	out.Delivered = true
	return out
}
