package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	offlinecache "github.com/ssatama/rescue-dog-aggregator-sub012"
	"github.com/ssatama/rescue-dog-aggregator-sub012/cache"
)

var (
	configFilenameFlag string
	originFlag         string
	portFlag           int
	dbFilenameFlag     string
	versionFlag        string
	lazyActivateFlag   bool
	verbosityTraceFlag bool
)

// envConfig overlays configuration from the environment.
type envConfig struct {
	Origin string `env:"ORIGIN_URL"`
	Port   int    `env:"PORT"`
	DB     string `env:"CACHE_DB"`
}

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to (overrides config)")
	flag.IntVar(&portFlag, "port", 0, "Port to listen on")
	flag.StringVar(&dbFilenameFlag, "db", "", "Cache DB file name (use 'memory' for in-memory store)")
	flag.StringVar(&versionFlag, "cache-version", "", "Cache version (overrides config)")
	flag.BoolVar(&lazyActivateFlag, "lazy-activate", false, "Install only; activate on the force-activate command")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
}

func main() {
	flag.Parse()

	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}
	log.Logger = log.Level(logLevel).Output(zerolog.ConsoleWriter{Out: os.Stdout})

	var fileCfg FileConfig
	if configFilenameFlag != "" {
		var err error
		if fileCfg, err = getConfig(configFilenameFlag); err != nil {
			log.Fatal().Err(err).Msg("Could not read config file")
		}
	}

	var envCfg envConfig
	if err := env.Parse(&envCfg); err != nil {
		log.Fatal().Err(err).Msg("Could not parse environment")
	}

	origin := firstNonEmpty(originFlag, envCfg.Origin, fileCfg.Origin)
	if origin == "" {
		log.Fatal().Msg("Please specify origin")
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse origin url")
	}

	port := firstNonZero(portFlag, envCfg.Port, fileCfg.Port, 8080)
	dbFilename := firstNonEmpty(dbFilenameFlag, envCfg.DB, fileCfg.DB, "cache.db")

	var store cache.Store
	if dbFilename == "memory" {
		store = cache.NewMemStore()
	} else {
		sqliteStore, err := cache.NewSQLiteStore(dbFilename)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not open cache db")
		}
		store = sqliteStore
	}

	oc := offlinecache.New(offlinecache.Config{
		Cache:       store,
		OriginURL:   *originURL,
		Version:     firstNonEmpty(versionFlag, fileCfg.Version),
		Precache:    fileCfg.Precache,
		OfflinePath: fileCfg.OfflinePath,
		APIPrefix:   fileCfg.APIPrefix,
		AssetPrefix: fileCfg.AssetPrefix,
		ImageHosts:  fileCfg.ImageHosts,
		Logger:      &log.Logger,
	})

	ctx := context.Background()
	if err := oc.Install(ctx); err != nil {
		log.Fatal().Err(err).Msg("Install failed")
	}
	if lazyActivateFlag {
		log.Info().Msg("Installed; waiting for force-activate command")
	} else if err := oc.Activate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Activate failed")
	}

	r := chi.NewRouter()
	r.Post("/-/command", func(w http.ResponseWriter, req *http.Request) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, "Could not read command", http.StatusBadRequest)
			return
		}
		oc.HandleCommand(string(body))
		w.WriteHeader(http.StatusAccepted)
	})
	r.Handle("/*", oc)

	log.Info().Msgf("Proxying port %v to %s", port, originURL.String())
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), r); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
