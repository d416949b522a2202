package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"zeroshot/internal/modkit"
	"zeroshot/internal/modkit/module"
	"zeroshot/internal/platform/config"
	"zeroshot/internal/platform/logger"
	"zeroshot/internal/platform/store"

	"zeroshot/internal/adapters/infer/hf"
	classifydom "zeroshot/internal/services/classify/domain"
	classifymod "zeroshot/internal/services/classify/module"
	recordsmod "zeroshot/internal/services/records/module"
	scoresmod "zeroshot/internal/services/scores/module"
)

func mustSetEnv(k, v string) {
	if v != "" {
		_ = os.Setenv(k, v)
	}
}

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")
	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", true),
		},
		CH: store.CHConfig{
			Enabled: chCfg.MayBool("ENABLED", true),
			URL:     chCfg.MayString("DBURL", ""),
			Role:    "classify",
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
		labelsStr  = flag.String("labels", "", "comma separated candidate labels (required)")
		source     = flag.String("source", "", "restrict to records from this source")
		template   = flag.String("template", "", "hypothesis template with one {} slot")
		multiLabel = flag.Bool("multi-label", false, "score labels independently")
		batch      = flag.Int("batch", 16, "batch size (throughput only)")
		onError    = flag.String("on-error", "fail_fast", "per-record failure policy: fail_fast or continue")
		limit      = flag.Int64("limit", 0, "cap records classified, 0 means all")
		page       = flag.Int("page", 1000, "page size (rows)")
	)
	flag.Parse()

	if *labelsStr == "" {
		log.Fatal("labels are required, e.g. -labels \"economy,sports,politics\"")
	}
	labels := strings.Split(*labelsStr, ",")

	// Pass CLI flags into CORE_CLASSIFY_* so the module can read its own config
	mustSetEnv("CORE_CLASSIFY_BATCH_SIZE", strconv.Itoa(*batch))
	mustSetEnv("CORE_CLASSIFY_PAGE_SIZE", strconv.Itoa(*page))

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	// Build dependency modules first
	rm := recordsmod.New(deps)
	sm := scoresmod.New(deps)

	// Build classify module with ports injected from deps modules
	cm := classifymod.New(
		deps,
		modkit.WithPorts(classifydom.Ports{
			Records:    module.MustPortsOf[recordsmod.Ports](rm).Reader,
			Scores:     module.MustPortsOf[scoresmod.Ports](sm).Writer,
			Classifier: classifymod.NewHFClassifier(hf.OptionsFromConf(root.Prefix("INFER_HF_"))),
		}),
	)

	// Register ports
	module.Register(rm.Name(), rm.Ports())
	module.Register(sm.Name(), sm.Ports())
	module.Register(cm.Name(), cm.Ports())

	// SIGINT/SIGTERM cancels between batches; completed batches stay written
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ports := cm.Ports().(classifymod.Ports)
	rep, err := ports.Runner.Run(ctx, classifydom.RunInput{
		Source:     *source,
		Labels:     labels,
		Template:   *template,
		MultiLabel: *multiLabel,
		BatchSize:  *batch,
		OnError:    classifydom.OnError(*onError),
		Limit:      *limit,
	})
	if err != nil {
		l.Fatal().Err(err).Str("run_id", rep.RunID).Msg("classify failed")
	}

	ev := l.Info().
		Str("run_id", rep.RunID).
		Str("status", string(rep.Status)).
		Int64("records", rep.Records).
		Int64("scored", rep.Scored).
		Int("failures", len(rep.Failures)).
		Bool("incomplete", rep.Incomplete).
		Dur("elapsed", rep.Finished.Sub(rep.Started))
	ev.Msg("classify finished")

	for _, f := range rep.Failures {
		l.Warn().Int64("seq", f.Seq).Str("error", f.Err).Msg("record failed")
	}
}
