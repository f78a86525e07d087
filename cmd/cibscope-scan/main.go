package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"

	"cibscope/internal/modkit"
	"cibscope/internal/modkit/module"
	"cibscope/internal/platform/config"
	"cibscope/internal/platform/logger"
	"cibscope/internal/platform/store"

	"cibscope/internal/adapters/ingest/ndjson"
	"cibscope/internal/core/params"
	runsmod "cibscope/internal/services/runs/module"
	scandom "cibscope/internal/services/scan/domain"
	scanmod "cibscope/internal/services/scan/module"
)

func mustSetEnv(k, v string) {
	if v != "" {
		_ = os.Setenv(k, v)
	}
}

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	rdsCfg := root.Prefix("SERVICE_REDIS_")
	l := logger.Get()

	var (
		input    = flag.String("input", "", "NDJSON dataset path (.gz ok)")
		preset   = flag.Int("preset", 0, "sensitivity preset 1..10 (0 = defaults)")
		paramsF  = flag.String("params", "", "YAML file of named parameter profiles")
		profile  = flag.String("profile", "default", "profile name inside -params file")
		seed     = flag.Int64("seed", 0, "rng seed for reproducible communities (0 = clock)")
		out      = flag.String("out", "", "report output path (default stdout)")
		archive  = flag.Bool("archive", false, "persist the report to postgres")
		workers  = flag.Int("workers", 4, "concurrent detector stages (>=1)")
		embedURL = flag.String("embed-url", "", "embedding endpoint; empty disables the semantic stage")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}

	// resolve parameters: explicit file wins over preset wins over defaults
	p := params.Default()
	switch {
	case *paramsF != "":
		profiles, err := params.LoadPresetFile(*paramsF)
		if err != nil {
			log.Fatalf("bad -params: %v", err)
		}
		got, ok := profiles[*profile]
		if !ok {
			log.Fatalf("profile %q not found in %s", *profile, *paramsF)
		}
		p = got
	case *preset != 0:
		var err error
		p, err = params.Preset(*preset)
		if err != nil {
			log.Fatalf("bad -preset: %v", err)
		}
	}

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     *archive,
			URL:         pgCfg.MayString("DBURL", ""),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		RDS: store.RedisConfig{
			Enabled:  rdsCfg.MayBool("ENABLED", false),
			Addr:     rdsCfg.MayString("ADDR", "localhost:6379"),
			Password: rdsCfg.MayString("PASSWORD", ""),
			DB:       rdsCfg.MayInt("DB", 0),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// Pass CLI flags into SCAN_* so the module can read its own config
	mustSetEnv("SCAN_WORKERS", strconv.Itoa(*workers))
	mustSetEnv("SCAN_EMBED_URL", *embedURL)

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		RDS: st.RDS,
		Log: *l,
	}

	sm := scanmod.New(deps, scanmod.Options{})
	module.Register(sm.Name(), sm.Ports())
	runner := module.MustPortsOf[scanmod.Ports](sm).Runner

	rd, err := ndjson.Open(*input)
	if err != nil {
		l.Fatal().Err(err).Str("input", *input).Msg("open dataset failed")
	}
	posts, sum, err := ndjson.ReadAll(rd)
	if cerr := rd.Close(); cerr != nil {
		l.Warn().Err(cerr).Msg("dataset close failed")
	}
	if err != nil {
		l.Fatal().Err(err).Msg("read dataset failed")
	}
	l.Info().Int("posts", sum.Posts).Int("skipped", sum.Skipped).Msg("dataset loaded")

	usedPreset := 0
	if *paramsF == "" && *preset != 0 {
		usedPreset = *preset
	}
	rep, err := runner.Scan(context.Background(), scandom.Input{
		Posts:  posts,
		Params: p,
		Preset: usedPreset,
		Seed:   *seed,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("scan failed")
	}
	rep.Skipped = sum.Skipped

	if *archive {
		rm := runsmod.New(deps)
		module.Register(rm.Name(), rm.Ports())
		arch := module.MustPortsOf[runsmod.Ports](rm).Archive
		if err := arch.Save(context.Background(), rep); err != nil {
			l.Error().Err(err).Msg("archive failed")
		}
	}

	raw, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		l.Fatal().Err(err).Msg("report marshal failed")
	}
	if *out == "" {
		if _, err := os.Stdout.Write(append(raw, '\n')); err != nil {
			l.Fatal().Err(err).Msg("report write failed")
		}
		return
	}
	if err := os.WriteFile(*out, raw, 0o644); err != nil {
		l.Fatal().Err(err).Str("out", *out).Msg("report write failed")
	}
	l.Info().Str("out", *out).Str("run", rep.RunID).Msg("report written")
}
