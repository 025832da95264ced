package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/relabs-tech/drone_dashboard/internal/config"
)

// RunConsoleMQTT prints every view the dashboard publishes on TOPIC_VIEW.
func RunConsoleMQTT(ctx context.Context, log *slog.Logger, w io.Writer) error {
	cfg := config.Get()
	if cfg.MQTTBroker == "" {
		return errors.New("MQTT_BROKER is required for the MQTT console")
	}

	client, err := connectMQTT(log, cfg.MQTTBroker, cfg.MQTTClientIDConsole)
	if err != nil {
		return err
	}
	defer client.Disconnect(mqttDisconnectQuiesce)

	out := newConsoleRenderer(w)
	if err := subscribeViews(log, client, cfg.TopicView, out.Render); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("console: shutting down")
	return nil
}
