package main

import (
	"log/slog"

	"github.com/hoopmetrics/playbook/pkg/actions/httprequest"
	logaction "github.com/hoopmetrics/playbook/pkg/actions/log"
	"github.com/hoopmetrics/playbook/pkg/actions/sleep"
	"github.com/hoopmetrics/playbook/pkg/notifier"
	"github.com/hoopmetrics/playbook/pkg/persistence"
	filestate "github.com/hoopmetrics/playbook/pkg/persistence/file"
	redisstate "github.com/hoopmetrics/playbook/pkg/persistence/redis"
	"github.com/hoopmetrics/playbook/pkg/registry"
)

func newRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	if err := reg.RegisterFactory(logaction.NewFactory(), nil); err != nil {
		panic(err)
	}

	if err := reg.RegisterFactory(httprequest.NewFactory(), nil); err != nil {
		panic(err)
	}

	if err := reg.RegisterFactory(sleep.NewFactory(), nil); err != nil {
		panic(err)
	}

	return reg
}

func newStateRepository(stateURL string) persistence.StateRepository {
	switch persistence.Scheme(stateURL) {
	case "redis", "rediss":
		repo, err := redisstate.NewRepository(stateURL, 0)
		if err != nil {
			panic(err)
		}

		return repo
	default:
		return filestate.NewRepository(stateURL)
	}
}

func newNotifier(botToken, channel string, logger *slog.Logger) *notifier.SlackNotifier {
	return notifier.NewSlackNotifier(notifier.Config{
		BotToken: botToken,
		Channel:  channel,
	}, logger)
}
