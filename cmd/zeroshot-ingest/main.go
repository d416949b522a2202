package main

import (
	"context"
	"flag"
	"log"
	"os"

	"zeroshot/internal/modkit"
	"zeroshot/internal/modkit/module"
	"zeroshot/internal/platform/config"
	"zeroshot/internal/platform/logger"
	"zeroshot/internal/platform/store"

	recdom "zeroshot/internal/services/records/domain"
	recordsmod "zeroshot/internal/services/records/module"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", true),
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

	var (
		file    = flag.String("file", "", "CSV file to ingest (required)")
		source  = flag.String("source", "", "dataset name to stamp on every record (required)")
		textCol = flag.String("text-col", "", "text column name, default text")
		idCol   = flag.String("id-col", "", "optional external id column")
	)
	flag.Parse()

	if *file == "" || *source == "" {
		log.Fatal("file and source are required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open %s: %v", *file, err)
	}

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	rm := recordsmod.New(deps)
	module.Register(rm.Name(), rm.Ports())

	ports := module.MustPortsOf[recordsmod.Ports](rm)
	rep, err := ports.Ingester.IngestCSV(context.Background(), f, recdom.IngestInput{
		Source:     *source,
		TextColumn: *textCol,
		IDColumn:   *idCol,
	})
	if err != nil {
		l.Fatal().Err(err).Str("file", *file).Msg("ingest failed")
	}

	l.Info().
		Str("file", *file).
		Str("source", *source).
		Int64("rows", rep.Rows).
		Int64("inserted", rep.Inserted).
		Int64("skipped", rep.Skipped).
		Msg("ingest finished")
}
