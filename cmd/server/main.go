package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "lintang/floodnav/docs"
	"lintang/floodnav/pkg/config"
	"lintang/floodnav/pkg/constraint"
	"lintang/floodnav/pkg/engine/routingalgorithm"
	"lintang/floodnav/pkg/geocoder"
	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/logger"
	"lintang/floodnav/pkg/preprocessing"
	"lintang/floodnav/pkg/server/rest"
	"lintang/floodnav/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//	@title			floodnav API
//	@version		1.0
//	@description	flood-aware openstreetmap routing engine in go

//	@contact.name	lintang birda saputra
//	@description 	flood-aware openstreetmap routing engine in go. A* over a compressed road graph, with flood areas, closed roads, and weather aware edge weights

//	@license.name	GNU Affero General Public License v3.0
//	@license.url	https://www.gnu.org/licenses/gpl-3.0.en.html

// @host		localhost:5000
// @BasePath	/api
// @schemes	http
func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	model, err := cfg.WeightModel()
	if err != nil {
		return fmt.Errorf("weight model: %w", err)
	}

	kvDB, err := kv.Open(cfg.DBPath, lg)
	if err != nil {
		return err
	}
	defer kvDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := rest.NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost%s/swagger/doc.json", cfg.ListenAddr)), //The url pointing to API definition
	))

	// flood zone langsung bisa dipakai, navigasi menunggu graph siap
	rest.FloodZoneRouter(r, service.NewFloodZoneService(kvDB), m)
	navHandler := rest.NavigatorRouter(r, nil, m)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("server started", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		res, err := preprocessing.LoadOrBuild(gctx, lg, kvDB, cfg.MapFile, model, cfg.Rebuild)
		if err != nil {
			return fmt.Errorf("routing graph: %w", err)
		}

		opts := []service.Option{
			service.WithFloodZoneStore(kvDB),
			service.WithBatchWorkers(cfg.BatchWorkers),
			service.WithFloodSearchRadius(cfg.FloodSearchKm),
			service.WithSnapCacheSize(cfg.SnapCacheSize),
		}
		if len(res.Entries) > 0 {
			opts = append(opts, service.WithGeocoder(geocoder.NewGeocoder(lg, res.Entries)))
		}
		navigatorSvc := service.NewNavigationService(lg, res.Graph, res.Index,
			routingalgorithm.NewRouteAlgorithm(res.Graph, model),
			constraint.NewResolver(lg, res.Index),
			opts...)
		navHandler.SetService(navigatorSvc)

		runtime.GC() // buang sisa hasil parsing osm
		lg.Info("routing graph ready",
			zap.Bool("fromSnapshot", res.FromCache),
			zap.Int("nodes", res.Graph.NumberOfNodes()),
			zap.Int("edges", res.Graph.NumberOfEdges()))
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		lg.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
