package bootstrap

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/openfolio/portfolio-api/config"
)

func TestBuildObservabilityDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	obs := buildObservability(logger, config.ObservabilityConfig{})
	if obs.MetricsSink != nil {
		t.Fatal("metrics sink should be nil when metrics are disabled")
	}
	if obs.Events != nil {
		t.Fatal("event sink should be nil when notifications are disabled")
	}
}

func TestBuildEventSinkSlackOnly(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sink := buildEventSink(logger, config.ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    time.Second,
		RetryLimit: 1,
		Slack: config.SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.com/services/T000/B000/XXX",
			Channel:    "#inbox",
			Username:   "portfolio",
		},
	})
	if sink == nil {
		t.Fatal("expected a sink when slack is enabled")
	}
}

func TestBuildEventSinkNoTargets(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sink := buildEventSink(logger, config.ObservabilityNotificationsConfig{Enabled: true})
	if sink != nil {
		t.Fatal("expected nil sink when no targets are configured")
	}
}
