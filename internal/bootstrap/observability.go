package bootstrap

import (
	"log/slog"

	"github.com/openfolio/portfolio-api/config"
	"github.com/openfolio/portfolio-api/internal/observability/notify"
	"github.com/openfolio/portfolio-api/internal/observability/notify/pagerduty"
	"github.com/openfolio/portfolio-api/internal/observability/notify/slack"
	"github.com/openfolio/portfolio-api/internal/observability/statsd"
)

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig

	// Events receives application notifications (contact inbox, backend
	// outage paging); nil when no sink is configured.
	Events         notify.Sink
	NotifierConfig config.ObservabilityNotificationsConfig
}

// buildObservability configures metrics and notification adapters.
// Failures here degrade to disabled sinks, never abort boot.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:    metricsSink,
		MetricsConfig:  cfg.Metrics,
		Events:         buildEventSink(obsLogger, cfg.Notifications),
		NotifierConfig: cfg.Notifications,
	}
}

// buildEventSink assembles the notification fan-out. Slack receives every
// event; PagerDuty only pages on critical ones.
//
//nolint:ireturn // the sink port is the useful return type here.
func buildEventSink(logger *slog.Logger, cfg config.ObservabilityNotificationsConfig) notify.Sink {
	if !cfg.Enabled {
		return nil
	}

	var fanout notify.Fanout

	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL:     cfg.Slack.WebhookURL,
			Channel:        cfg.Slack.Channel,
			Username:       cfg.Slack.Username,
			Timeout:        cfg.Timeout,
			RetryLimit:     cfg.RetryLimit,
			AdminURLPrefix: cfg.Slack.SiteURLPrefix,
		})
		if err != nil {
			logger.Error("failed to initialise slack notifier", "error", err)
		} else {
			fanout = append(fanout, client)
		}
	}

	if cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise pagerduty notifier", "error", err)
		} else {
			fanout = append(fanout, notify.CriticalOnly(client))
		}
	}

	if len(fanout) == 0 {
		return nil
	}
	return fanout
}
