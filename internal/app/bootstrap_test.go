package app

import (
	"context"
	"testing"

	"github.com/testuser-console/internal/config"
	"github.com/testuser-console/internal/testutil/fakeapi"
)

func bootstrapConfig(api *fakeapi.Server, refreshSeconds int) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: "0", Mode: "debug"},
		API:     config.APIConfig{BaseURL: api.BaseURL(), Token: api.Token(), TimeoutMS: 2000},
		Console: config.ConsoleConfig{PageSize: 10, AutoRefreshSeconds: refreshSeconds},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func serviceNames(r *Runner) []string {
	names := make([]string, 0, len(r.services))
	for _, svc := range r.services {
		names = append(names, svc.Name())
	}
	return names
}

func TestBuildRunnerServices(t *testing.T) {
	api := fakeapi.New(t)

	runner, err := BuildRunner(bootstrapConfig(api, 0))
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	names := serviceNames(runner)
	if err := runner.Shutdown(context.Background(), nil); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if len(names) != 1 || names[0] != "http" {
		t.Fatalf("unexpected services without refresh: %v", names)
	}

	runner, err = BuildRunner(bootstrapConfig(api, 30))
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	names = serviceNames(runner)
	if err := runner.Shutdown(context.Background(), nil); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
	if len(names) != 2 || names[0] != "http" || names[1] != "refresh" {
		t.Fatalf("unexpected services with refresh: %v", names)
	}
}

func TestBuildRunnerRejectsInvalidConfig(t *testing.T) {
	if _, err := BuildRunner(nil); err == nil {
		t.Fatalf("nil config should fail")
	}
	if _, err := BuildRunner(&config.Config{}); err == nil {
		t.Fatalf("missing base url should fail")
	}
	if err := Run(Options{}); err == nil {
		t.Fatalf("run without config should fail")
	}
}

func TestBuildRunnerRegistersShutdownHooks(t *testing.T) {
	api := fakeapi.New(t)
	runner, err := BuildRunner(bootstrapConfig(api, 0))
	if err != nil {
		t.Fatalf("build runner failed: %v", err)
	}
	if len(runner.hooks) != 2 || runner.hooks[0].Name != "container" || runner.hooks[1].Name != "console_handler" {
		t.Fatalf("unexpected shutdown hooks: %+v", runner.hooks)
	}
	if err := runner.Shutdown(context.Background(), nil); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
