// @title         Tidepool API
// @version       0.1.0
// @description   Federation core: identity resolution, collections, and follow protocol

package main

import (
	"context"

	"tidepool/internal/core/fed"
	"tidepool/internal/platform/config"
	"tidepool/internal/platform/logger"
	phttp "tidepool/internal/platform/net/http"
	"tidepool/internal/platform/store"

	"tidepool/internal/services/api"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	fedCfg := root.Prefix("FED_")

	// bring up logging early
	l := logger.Get()

	// instance identity (FED_ORIGIN / FED_KEY_ID)
	fc, err := fed.New(fedCfg.MustString("ORIGIN"), fedCfg.MayString("KEY_ID", ""))
	if err != nil {
		l.Panic().Err(err).Msg("invalid federation origin")
	}

	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "tidepool",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", true),
			},
		},
		store.WithLogger(*logger.Get()),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// http server (reads CORE_API_PORT / CORE_API_ADDR)
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:        root,
			Store:         st,
			Fed:           fc,
			EnableSwagger: apiCfg.MayBool("SWAGGER", true),
		},
	)

	l.Info().Str("origin", fc.Origin).Str("addr", srv.Addr()).Msg("tidepool api starting")
	if err := srv.Run(context.Background()); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
