// Package api provides the HTTP API for the federation core
package api

import (
	"tidepool/internal/core/fed"
	"tidepool/internal/platform/config"
	phttp "tidepool/internal/platform/net/http"
	"tidepool/internal/platform/store"

	"tidepool/internal/adapters/fediverse"
	"tidepool/internal/modkit"
	"tidepool/internal/modkit/httpkit"
	"tidepool/internal/modkit/module"
	"tidepool/internal/modkit/swaggerkit"

	actorsmod "tidepool/internal/services/api/actors/module"
	colmod "tidepool/internal/services/api/collections/module"

	logrepo "tidepool/internal/services/activitylog/repo"
	logsvc "tidepool/internal/services/activitylog/service"
	colsvc "tidepool/internal/services/collections/service"
	delsvc "tidepool/internal/services/delivery/service"
	followsvc "tidepool/internal/services/follow/service"
	"tidepool/internal/services/inbox"
	resrepo "tidepool/internal/services/resolver/repo"
	ressvc "tidepool/internal/services/resolver/service"
)

// Options are the API options
type Options struct {
	Config        config.Conf
	Store         *store.Store
	Fed           fed.Context
	EnableSwagger bool
}

// Mount builds the service graph and mounts the API onto the given router
func Mount(r phttp.Router, opt Options) {
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		Fed: opt.Fed,
	}

	fcfg := opt.Config.Prefix("FED_")
	client := fediverse.NewClient(fediverse.Options{
		UserAgent: fcfg.MayString("USER_AGENT", ""),
		Timeout:   fcfg.MayDuration("HTTP_TIMEOUT", 0),
	})

	resolver := ressvc.New(deps.PG, resrepo.NewPG(), client, opt.Fed)
	alog := logsvc.New(deps.PG, logrepo.NewPG())
	deliverer := delsvc.New(client, delsvc.Options{
		MaxRetries: fcfg.MayInt("DELIVERY_MAX_RETRIES", 0),
		RetryBase:  fcfg.MayDuration("DELIVERY_RETRY_BASE", 0),
	})
	engine := followsvc.New(resolver, alog, deliverer, opt.Fed)
	aggregator := colsvc.New(client, resolver, opt.Fed)
	dispatcher := inbox.New(alog)

	mods := []module.Module{
		actorsmod.New(deps, modkit.WithPorts(actorsmod.Ports{
			Resolver: resolver,
			Engine:   engine,
			Log:      alog,
			Inbox:    dispatcher,
		})),
		colmod.New(deps, modkit.WithPorts(colmod.Ports{
			Aggregator: aggregator,
		})),
	}

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)

		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}
