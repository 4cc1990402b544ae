// Package server boots an LMS or CMS host process with the installed
// plugins wired in.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/internal/app"
	"github.com/noah-isme/openedx-sample-plugin/internal/eventbus"
	"github.com/noah-isme/openedx-sample-plugin/internal/frontend"
	"github.com/noah-isme/openedx-sample-plugin/internal/handler"
	"github.com/noah-isme/openedx-sample-plugin/internal/middleware"
	"github.com/noah-isme/openedx-sample-plugin/internal/pluginsettings"
	"github.com/noah-isme/openedx-sample-plugin/internal/service"
	"github.com/noah-isme/openedx-sample-plugin/pkg/config"
	"github.com/noah-isme/openedx-sample-plugin/pkg/database"
	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
	"github.com/noah-isme/openedx-sample-plugin/pkg/logger"
	corsmiddleware "github.com/noah-isme/openedx-sample-plugin/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/openedx-sample-plugin/pkg/middleware/requestid"
	"github.com/noah-isme/openedx-sample-plugin/pkg/plugin"
	"github.com/noah-isme/openedx-sample-plugin/pkg/rdb"
	"github.com/noah-isme/openedx-sample-plugin/pkg/settings"
	"github.com/noah-isme/openedx-sample-plugin/pkg/slots"
	"github.com/noah-isme/openedx-sample-plugin/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

// Host is a built host process ready to serve.
type Host struct {
	Project  plugin.ProjectType
	Router   *gin.Engine
	Settings *settings.Settings
	Catalog  *events.Catalog
	Plugins  *plugin.Registry

	cfg      *config.Config
	logger   *zap.Logger
	db       *sqlx.DB
	auth     *service.AuthService
	consumer *eventbus.Consumer
	closers  []func(context.Context) error
}

// Build wires the host for project: settings, storage, signals, filters
// and every installed plugin's routes.
func Build(ctx context.Context, project plugin.ProjectType, cfg *config.Config, log *zap.Logger) (*Host, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Host{Project: project, cfg: cfg, logger: log, Plugins: plugin.NewRegistry()}
	if err := h.build(ctx); err != nil {
		_ = h.Close(context.Background())
		return nil, err
	}
	return h, nil
}

func (h *Host) build(ctx context.Context) error {
	shutdownTracing, err := tracing.Init(ctx, h.cfg.Tracing, h.logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	h.closers = append(h.closers, shutdownTracing)

	sample, err := app.New(h.cfg.Plugin)
	if err != nil {
		return err
	}
	if err := h.Plugins.Register(sample); err != nil {
		return err
	}

	h.Settings = settings.FromConfig(h.cfg)
	for _, layer := range plugin.SettingsChain(h.cfg.Env) {
		if err := h.Plugins.ApplySettings(h.Project, layer, h.Settings, h.logger.Named("settings")); err != nil {
			return err
		}
	}
	if h.Settings.GinMode != "" {
		gin.SetMode(h.Settings.GinMode)
	}

	db, err := database.Open(h.Settings.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	h.db = db
	h.closers = append(h.closers, func(context.Context) error { return db.Close() })
	if h.Settings.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	metrics := service.NewMetricsService()
	h.Catalog = events.NewCatalog(
		events.WithSource(sourceFor(h.Project)),
		events.WithObserver(metrics.ObserveSignal),
	)
	h.auth = service.NewAuthService(h.logger.Named("auth"), service.AuthConfig{
		Secret: h.cfg.JWT.Secret,
		Issuer: h.cfg.JWT.Issuer,
		Expiry: h.cfg.JWT.Expiration,
	})
	pluginHost := &plugin.Host{
		Logger:       h.logger,
		Settings:     h.Settings,
		DB:           db,
		Authenticate: middleware.JWT(h.auth),
		Registerer:   metrics.Registerer(),
		Steps:        filters.NewStepRegistry(),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(h.logger))
	r.Use(corsmiddleware.New(h.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	h.Router = r

	observability := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", observability.Health)
	r.GET("/metrics", observability.Prometheus)
	if h.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		r.POST("/oauth2/dev-token", handler.NewAuthHandler(h.auth).DevToken)
	}

	if err := h.Plugins.RegisterSteps(h.Project, pluginHost); err != nil {
		return err
	}
	if _, err := h.Plugins.MountURLs(r, h.Project, pluginHost); err != nil {
		return err
	}
	if err := h.Plugins.ConnectSignals(h.Project, h.Catalog, pluginHost); err != nil {
		return err
	}

	switch h.Project {
	case plugin.LMS:
		return h.buildLMS(ctx, pluginHost, metrics)
	case plugin.CMS:
		return h.buildCMS(ctx)
	default:
		return fmt.Errorf("unknown project type %q", h.Project)
	}
}

func (h *Host) buildLMS(ctx context.Context, pluginHost *plugin.Host, metrics *service.MetricsService) error {
	aboutFilter, err := filters.Build[filters.CourseAboutPageURLParams](
		filters.CourseAboutPageURLRequestedType,
		h.Settings.OpenEdxFiltersConfig,
		pluginHost.Steps,
		filters.WithLogger(h.logger.Named("filters")),
		filters.WithObserver(metrics.ObserveFilterStep),
	)
	if err != nil {
		return err
	}
	h.Router.GET("/courses/:course_id/about-url", middleware.OptionalJWT(h.auth), handler.NewCourseAboutHandler(aboutFilter).AboutURL)

	mfeSlots := slots.NewRegistry()
	if err := frontend.Register(mfeSlots); err != nil {
		return err
	}
	slotsHandler := handler.NewSlotsHandler(mfeSlots)
	h.Router.GET("/api/mfe_config/v1/plugin-slots", slotsHandler.Config)
	h.Router.GET("/api/mfe_config/v1/plugin-slots/env.config.jsx", slotsHandler.EnvConfig)

	bus := pluginsettings.Section(h.Settings)
	if !bus.EventBusEnabled {
		return nil
	}
	client, err := rdb.Open(ctx, h.Settings.Redis)
	if err != nil {
		return fmt.Errorf("connect event bus: %w", err)
	}
	h.closers = append(h.closers, func(context.Context) error { return client.Close() })
	h.consumer = eventbus.NewConsumer(client, h.Catalog, eventbus.Config{
		Stream:   bus.EventBusStream,
		Group:    bus.EventBusGroup,
		Consumer: bus.EventBusConsumer,
		Workers:  2,
	}, h.logger.Named("eventbus"))
	return nil
}

func (h *Host) buildCMS(ctx context.Context) error {
	var producer *eventbus.Producer
	if bus := pluginsettings.Section(h.Settings); bus.EventBusEnabled {
		client, err := rdb.Open(ctx, h.Settings.Redis)
		if err != nil {
			return fmt.Errorf("connect event bus: %w", err)
		}
		h.closers = append(h.closers, func(context.Context) error { return client.Close() })
		producer = eventbus.NewProducer(client, bus.EventBusStream, 10000)
	}
	emitter := eventbus.NewEmitter(h.Catalog, producer, h.logger.Named("eventbus"))
	h.Router.POST("/courses/:course_id/catalog-info", middleware.JWT(h.auth), middleware.RequireStaff(), handler.NewCourseCatalogHandler(emitter).Publish)
	return nil
}

// Serve listens on the configured port until ctx is cancelled, then
// drains in-flight requests.
func (h *Host) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", h.cfg.Port),
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		h.logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("project", string(h.Project)), zap.String("env", h.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if h.consumer != nil {
		go func() {
			if err := h.consumer.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	h.logger.Info("server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// Close releases the database, event bus and tracer in reverse order.
func (h *Host) Close(ctx context.Context) error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

func sourceFor(project plugin.ProjectType) string {
	if project == plugin.CMS {
		return "openedx/cms/web"
	}
	return "openedx/lms/web"
}
