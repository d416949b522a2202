// Package api provides the HTTP API for the application
package api

import (
	"zeroshot/internal/platform/config"
	"zeroshot/internal/platform/logger"
	phttp "zeroshot/internal/platform/net/http"
	"zeroshot/internal/platform/store"

	"zeroshot/internal/modkit"
	"zeroshot/internal/modkit/httpkit"
	"zeroshot/internal/modkit/module"
	"zeroshot/internal/modkit/swaggerkit"

	"zeroshot/internal/adapters/infer/hf"
	metamod "zeroshot/internal/services/api/meta/module"
	apirecords "zeroshot/internal/services/api/records/module"
	apiresults "zeroshot/internal/services/api/results/module"
	apistats "zeroshot/internal/services/api/stats/module"
	apitable "zeroshot/internal/services/api/table/module"
	recordsmod "zeroshot/internal/services/records/module"
	scoresmod "zeroshot/internal/services/scores/module"
)

// Options are the API options
type Options struct {
	Config        config.Conf
	Store         *store.Store
	Logger        *logger.Logger
	EnableSwagger bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}

	// Worker modules own the storage-facing ports
	records := recordsmod.New(deps)
	scores := scoresmod.New(deps)

	recordsPorts := module.MustPortsOf[recordsmod.Ports](records)
	scoresPorts := module.MustPortsOf[scoresmod.Ports](scores)

	// The api only reports the configured model; classification runs via the CLI
	model := hf.OptionsFromConf(opt.Config.Prefix("INFER_HF_")).Model

	mods := []module.Module{
		metamod.New(deps, model),
		apirecords.New(deps, modkit.WithPorts(apirecords.Ports{Reader: recordsPorts.Reader})),
		apiresults.New(deps, modkit.WithPorts(apiresults.Ports{Scores: scoresPorts.Reader})),
		apitable.New(deps, modkit.WithPorts(apitable.Ports{Scores: scoresPorts.Reader})),
		apistats.New(deps, modkit.WithPorts(apistats.Ports{Scores: scoresPorts.Reader})),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		swaggerkit.Mount(r, opt.EnableSwagger)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
