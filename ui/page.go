package ui

import (
	"math/rand"
	"time"

	"github.com/changeset-demo/changeset-demo/configs"
	"github.com/changeset-demo/changeset-demo/metrics"
	"github.com/changeset-demo/changeset-demo/scene"
	"github.com/changeset-demo/changeset-demo/services"
)

// HomePage is everything one open home page owns: the form controller, the status badge clock,
// and the animated background with its pointer feed.
type HomePage struct {
	Controller *services.HomeController
	Indicator  *StatusIndicator
	Scene      *scene.Scene
	Pointers   *scene.PointerBus
}

func NewHomePage(checker services.HealthChecker, sender services.EmailSender, metricsService metrics.Service, appConfigs *configs.AppConfigs) *HomePage {
	pointers := scene.NewPointerBus()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &HomePage{
		Controller: services.NewHomeController(checker, sender, metricsService, appConfigs.PollInterval, appConfigs.BackendTimeout),
		Indicator:  NewStatusIndicator("", SizeMd, appConfigs.ClockTickInterval),
		Scene:      scene.NewScene(pointers, rng),
		Pointers:   pointers,
	}
}

// NewHomePageFactory is the page factory of the sessions service.
func NewHomePageFactory(checker services.HealthChecker, sender services.EmailSender, metricsService metrics.Service, appConfigs *configs.AppConfigs) services.PageFactory {
	return func() services.Page {
		return NewHomePage(checker, sender, metricsService, appConfigs)
	}
}

func (hp *HomePage) Mount() {
	hp.Controller.Mount()
	hp.Indicator.Mount()
	hp.Scene.Mount()
}

func (hp *HomePage) Unmount() {
	hp.Scene.Unmount()
	hp.Indicator.Unmount()
	hp.Controller.Unmount()
}
