package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kbukum/flowpipe/config"
	"github.com/kbukum/flowpipe/logger"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"), WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-svc" || app.Version != "1.0.0" {
		t.Fatalf("unexpected identity %s %s", app.Name, app.Version)
	}
	if app.Cfg.Logging.Level != "debug" {
		t.Errorf("expected development defaults to enable debug logging, got %q", app.Cfg.Logging.Level)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("expected 15s graceful timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	_, err := NewApp(&testConfig{}, WithLogger(logger.NewNop()))
	if err == nil {
		t.Fatal("expected validation error for missing name")
	}
}

func TestNewApp_InitializesLogger(t *testing.T) {
	app, err := NewApp(newTestConfig("svc", "1"))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Logger == nil || app.Logger != logger.GetGlobalLogger() {
		t.Fatal("expected the global logger to be initialized and used")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app, err := NewApp(newTestConfig("svc", "1"), WithLogger(logger.NewNop()), WithGracefulTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.gracefulTimeout != time.Second {
		t.Fatalf("expected 1s, got %v", app.gracefulTimeout)
	}

	app, err = NewApp(newTestConfig("svc", "1"), WithLogger(logger.NewNop()), WithGracefulTimeout(0))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.gracefulTimeout != defaultGracefulTimeout {
		t.Fatalf("expected default timeout for zero, got %v", app.gracefulTimeout)
	}
}

func TestRunTask_HookOrder(t *testing.T) {
	app := newTestApp(t)

	var order []string
	record := func(name string) Hook {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	app.OnStart(record("start"))
	app.OnReady(record("ready"))
	app.OnStop(record("stop1"), record("stop2"))

	err := app.RunTask(context.Background(), func(context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	expected := []string{"start", "ready", "task", "stop2", "stop1"}
	if len(order) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, order)
	}
	for i := range expected {
		if order[i] != expected[i] {
			t.Fatalf("position %d: expected %s, got %s (full: %v)", i, expected[i], order[i], order)
		}
	}
}

func TestRunTask_Errors(t *testing.T) {
	taskErr := errors.New("task failed")
	stopErr := errors.New("stop failed")

	t.Run("task error wins over stop error", func(t *testing.T) {
		app := newTestApp(t)
		app.OnStop(func(context.Context) error { return stopErr })
		if err := app.RunTask(context.Background(), func(context.Context) error { return taskErr }); !errors.Is(err, taskErr) {
			t.Fatalf("expected task error, got %v", err)
		}
	})

	t.Run("stop error reported", func(t *testing.T) {
		app := newTestApp(t)
		app.OnStop(func(context.Context) error { return stopErr })
		if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, stopErr) {
			t.Fatalf("expected stop error, got %v", err)
		}
	})

	t.Run("start hook aborts", func(t *testing.T) {
		app := newTestApp(t)
		ran := false
		app.OnStart(func(context.Context) error { return errors.New("boom") })
		err := app.RunTask(context.Background(), func(context.Context) error {
			ran = true
			return nil
		})
		if err == nil || ran {
			t.Fatalf("expected startup failure without running the task, got %v (ran=%v)", err, ran)
		}
	})
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	stopped := false
	app.OnStop(func(context.Context) error {
		stopped = true
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if !stopped {
		t.Fatal("expected stop hooks to run")
	}
}
