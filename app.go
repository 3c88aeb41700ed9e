package tripagent

import (
	"context"
	"fmt"

	"github.com/Desarso/tripagent/common_tools"
	"github.com/Desarso/tripagent/geo"
	"github.com/Desarso/tripagent/route"
	"github.com/Desarso/tripagent/serp"
	"github.com/Desarso/tripagent/sessions"
	"github.com/Desarso/tripagent/stores"
	"github.com/Desarso/tripagent/workspace"
)

// App is the assembled trip agent: store, tools, model, turn runner and the
// workspace service on top.
type App struct {
	Config    *Config
	Store     stores.SessionStore
	Agent     *Agent
	Runner    *sessions.Runner
	Policy    *sessions.Policy
	Service   *workspace.Service
	Scheduler *Scheduler
}

// NewApp wires every component from cfg. The scheduler is created with the
// policy refresh registered but not started.
func NewApp(ctx context.Context, cfg *Config) (*App, error) {
	store, err := cfg.OpenStore()
	if err != nil {
		return nil, err
	}

	search := serp.NewClient(cfg.SerpAPIKey)
	tools := common_tools.NewTravelTools(search, route.NewBuilder(geo.NewAdapter(search, cfg.Language)))
	tools.Currency = cfg.Currency
	tools.Language = cfg.Language
	tools.Region = cfg.Region
	tools.ItineraryDir = cfg.ItineraryDir

	model, err := NewModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	agent := Create_Agent(model, tools.Registry(cfg.ToolTimeout))

	runner := sessions.NewRunner(&agent, cfg.MaxRounds)
	if src, ok := store.(stores.TraceSource); ok {
		runner.Traces = src.Traces()
	}
	policy := sessions.NewPolicy(cfg.DefaultOrigin)

	completer, err := NewPreferenceCompleter(ctx, cfg, &agent)
	if err != nil {
		return nil, err
	}

	scheduler := NewScheduler()
	if _, err := scheduler.SchedulePolicyRefresh(policy); err != nil {
		return nil, err
	}

	return &App{
		Config:    cfg,
		Store:     store,
		Agent:     &agent,
		Runner:    runner,
		Policy:    policy,
		Service:   workspace.NewService(store, runner, policy, completer),
		Scheduler: scheduler,
	}, nil
}

func (a *App) Close() error {
	a.Scheduler.Stop()
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}
