package main

import (
	"context"
	"log"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"salesquote/collections"
	"salesquote/config"
	"salesquote/handlers"
	"salesquote/services"
	"salesquote/store"
)

func main() {
	app := pocketbase.New()

	var configPath string
	app.RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a salesquote config file (yaml, toml or json)")

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if err := collections.Seed(app); err != nil {
			log.Printf("Warning: seed data failed: %v", err)
		}
		if err := collections.MigrateRFQStatusDefaults(app); err != nil {
			log.Printf("Warning: RFQ status migration failed: %v", err)
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger := config.NewLogger(cfg, os.Stdout)

		st := store.NewPocketBase(app)
		resolver := services.NewResolver(st, logger,
			services.WithConcurrency(cfg.Concurrency),
			services.WithFastPath(func(s services.Stage) bool { return cfg.FastPath(string(s)) }),
		)
		lookups := services.NewLookups(st, cfg.CacheSize, cfg.CacheTTL)

		d := &handlers.Deps{
			Workflow: services.NewWorkflow(st, resolver, logger),
			Resolver: resolver,
			Loader:   services.NewLoader(st, resolver, lookups, logger),
			POs:      services.NewPurchaseOrders(st, resolver),
			Letterhead: services.Letterhead{
				CompanyName: cfg.Company.Name,
				Address:     cfg.Company.Address,
				Pin:         cfg.Company.Pin,
				Email:       cfg.Company.Email,
				Phone:       cfg.Company.Phone,
				Signatory:   cfg.Company.Signatory,
				RefPrefix:   cfg.RefPrefix,
				Terms:       cfg.Terms,
			},
			Logger: logger,
		}

		collections.RegisterHooks(app, collections.HookFuncs{
			RFQDeleted: func(ctx context.Context, rfq string) error {
				return services.DeleteRFQChildren(ctx, st, rfq)
			},
			CatalogChanged: func(collection, key string) {
				switch collection {
				case "customers":
					lookups.Customers.Invalidate(key)
				case "materials":
					lookups.Materials.Invalidate(key)
				}
			},
		})
		app.Cron().MustAdd("lookup-purge", cfg.CachePurgeCron, lookups.Purge)

		api := se.Router.Group("/api")
		api.BindFunc(handlers.RequestLogger(logger))

		// ── Queues and reference data ────────────────────────────
		api.GET("/queues/{stage}", handlers.HandleQueue(d))
		api.GET("/quotes/options", handlers.HandleOptions())
		api.GET("/quotes/parts-template", handlers.HandlePartsTemplate(d))
		api.POST("/quotes/import-errors", handlers.HandleImportErrorReport(d))

		// ── Quotation ────────────────────────────────────────────
		api.GET("/quotes/{rfq}", handlers.HandleLoad(d))
		api.GET("/quotes/{rfq}/history", handlers.HandleHistory(d))
		api.POST("/quotes/{rfq}/draft", handlers.HandleSaveDraft(d))
		api.POST("/quotes/{rfq}/import", handlers.HandlePartsImport(d))

		// ── Status transitions ───────────────────────────────────
		api.POST("/quotes/{rfq}/submit", handlers.HandleSubmit(d))
		api.POST("/quotes/{rfq}/approve", handlers.HandleApprove(d))
		api.POST("/quotes/{rfq}/reject", handlers.HandleReject(d))
		api.POST("/quotes/{rfq}/send", handlers.HandleSend(d))
		api.POST("/quotes/{rfq}/won", handlers.HandleWin(d))
		api.POST("/quotes/{rfq}/loss", handlers.HandleLose(d))
		api.POST("/quotes/{rfq}/revise", handlers.HandleRevise(d))
		api.POST("/quotes/{rfq}/resubmit", handlers.HandleResubmit(d))

		// ── Exports and purchase orders ──────────────────────────
		api.GET("/quotes/{rfq}/export/{format}", handlers.HandleExport(d))
		api.GET("/quotes/{rfq}/po", handlers.HandleGetPO(d))
		api.POST("/quotes/{rfq}/po", handlers.HandleSavePO(d))

		logger.Info().Str("ref_prefix", cfg.RefPrefix).Int("concurrency", cfg.Concurrency).Msg("quotation routes registered")
		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
