package bootstrap

import (
	"log/slog"

	"github.com/PoojaS1511/Updated-CMS-sub000/config"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/notify/pagerduty"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/observability/notify/slack"
	"github.com/PoojaS1511/Updated-CMS-sub000/internal/service/failurenotifier"
)

// BuildFailureNotifier registers the configured outage sinks. A sink that fails to
// build is logged and skipped.
func BuildFailureNotifier(cfg config.ObservabilityNotificationsConfig, logger *slog.Logger) *failurenotifier.Service {
	if logger == nil {
		logger = slog.Default()
	}
	var sinks []failurenotifier.SinkRegistration
	if cfg.Enabled && cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			PortalURL:  cfg.Slack.PortalURL,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Warn("slack notifications disabled", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}
	if cfg.Enabled && cfg.PagerDuty.Enabled {
		client, err := pagerduty.NewClient(pagerduty.Config{
			RoutingKey: cfg.PagerDuty.RoutingKey,
			Source:     cfg.PagerDuty.Source,
			Component:  cfg.PagerDuty.Component,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			logger.Warn("pagerduty notifications disabled", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "pagerduty", Sink: client})
		}
	}
	return failurenotifier.NewService(failurenotifier.Options{Logger: logger, Sinks: sinks})
}
