package plugin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/openedx-sample-plugin/pkg/events"
	"github.com/noah-isme/openedx-sample-plugin/pkg/filters"
	"github.com/noah-isme/openedx-sample-plugin/pkg/settings"
)

func pingRoutes(rg *gin.RouterGroup, _ *Host) error {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return nil
}

func demoApp(name string) AppConfig {
	return AppConfig{
		Name: name,
		URLs: map[ProjectType]URLConfig{
			LMS: {Namespace: name, Prefix: name + "/", Routes: pingRoutes},
		},
	}
}

func TestNewAppConfigValidation(t *testing.T) {
	cases := map[string]AppConfig{
		"empty name":     {},
		"unknown target": {Name: "x", URLs: map[ProjectType]URLConfig{"ecommerce.djangoapp": {Namespace: "x", Prefix: "x/", Routes: pingRoutes}}},
		"leading slash":  {Name: "x", URLs: map[ProjectType]URLConfig{LMS: {Namespace: "x", Prefix: "/x/", Routes: pingRoutes}}},
		"no routes":      {Name: "x", URLs: map[ProjectType]URLConfig{LMS: {Namespace: "x", Prefix: "x/"}}},
		"bad layer":      {Name: "x", Settings: map[ProjectType]map[SettingsType]SettingsFunc{LMS: {"devstack": func(*settings.Settings, *zap.Logger) error { return nil }}}},
		"bad receiver":   {Name: "x", Signals: map[ProjectType][]SignalReceiver{CMS: {{Name: "r"}}}},
		"nil steps":      {Name: "x", Steps: map[ProjectType]StepsFunc{LMS: nil}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewAppConfig(cfg)
			assert.ErrorIs(t, err, ErrInvalidApp)
		})
	}

	cfg, err := NewAppConfig(demoApp("demo"))
	require.NoError(t, err)
	assert.True(t, cfg.Targets(LMS))
	assert.False(t, cfg.Targets(CMS))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(demoApp("demo")))
	assert.ErrorIs(t, r.Register(demoApp("demo")), ErrDuplicateApp)
	assert.Len(t, r.Apps(LMS), 1)
	assert.Empty(t, r.Apps(CMS))
}

func TestMountURLs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRegistry()
	require.NoError(t, r.Register(demoApp("demo")))

	engine := gin.New()
	namespaces, err := r.MountURLs(engine, LMS, &Host{})
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, namespaces)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/demo/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestApplySettingsRunsRequestedLayer(t *testing.T) {
	var applied []SettingsType
	record := func(layer SettingsType) SettingsFunc {
		return func(*settings.Settings, *zap.Logger) error {
			applied = append(applied, layer)
			return nil
		}
	}
	app := AppConfig{
		Name: "demo",
		Settings: map[ProjectType]map[SettingsType]SettingsFunc{
			LMS: {SettingsCommon: record(SettingsCommon), SettingsTest: record(SettingsTest)},
		},
	}
	r := NewRegistry()
	require.NoError(t, r.Register(app))

	s := settings.FromConfig(nil)
	for _, layer := range SettingsChain("test") {
		require.NoError(t, r.ApplySettings(LMS, layer, s, nil))
	}
	require.NoError(t, r.ApplySettings(CMS, SettingsCommon, s, nil))

	assert.Equal(t, []SettingsType{SettingsCommon, SettingsTest}, applied)
	assert.Equal(t, []SettingsType{SettingsCommon}, SettingsChain("development"))
}

func TestConnectSignals(t *testing.T) {
	var received []string
	app := AppConfig{
		Name: "demo",
		Signals: map[ProjectType][]SignalReceiver{
			CMS: {{
				EventType: events.CourseCatalogInfoChangedType,
				Name:      "demo.record",
				Connect: func(catalog *events.Catalog, _ *Host) error {
					return catalog.CourseCatalogInfoChanged.Connect("demo.record",
						func(_ context.Context, _ events.Metadata, data *events.CourseCatalogData) error {
							received = append(received, data.Name)
							return nil
						})
				},
			}},
		},
	}
	r := NewRegistry()
	require.NoError(t, r.Register(app))

	catalog := events.NewCatalog(events.WithSource("openedx/cms/web"))
	require.NoError(t, r.ConnectSignals(CMS, catalog, nil))
	require.NoError(t, catalog.CourseCatalogInfoChanged.Send(context.Background(), &events.CourseCatalogData{Name: "Demo"}))

	assert.Equal(t, []string{"Demo"}, received)
}

func TestConnectSignalsUnknownEvent(t *testing.T) {
	app := AppConfig{
		Name: "demo",
		Signals: map[ProjectType][]SignalReceiver{
			LMS: {{EventType: "org.openedx.learning.unknown.v1", Name: "r", Connect: func(*events.Catalog, *Host) error { return nil }}},
		},
	}
	r := NewRegistry()
	require.NoError(t, r.Register(app))

	err := r.ConnectSignals(LMS, events.NewCatalog(), nil)
	assert.ErrorIs(t, err, ErrUnknownSignal)
}

func TestRegisterSteps(t *testing.T) {
	app := AppConfig{
		Name: "steps",
		Steps: map[ProjectType]StepsFunc{
			LMS: func(registry *filters.StepRegistry, _ *Host) error {
				return filters.Register[string](registry, "steps.Upper", filters.StepFunc[string](func(_ context.Context, p string) (*string, error) {
					return &p, nil
				}))
			},
		},
	}
	r := NewRegistry()
	require.NoError(t, r.Register(app))
	host := &Host{Steps: filters.NewStepRegistry()}

	require.NoError(t, r.RegisterSteps(LMS, host))
	require.NoError(t, r.RegisterSteps(CMS, host))
	assert.Equal(t, []string{"steps.Upper"}, host.Steps.Names())
	assert.ErrorIs(t, r.RegisterSteps(LMS, &Host{}), ErrInvalidApp)
}
