package main

import (
	"context"

	"go.uber.org/zap"

	config "github.com/vigilhq/vigil/internal/config/alertd"
	"github.com/vigilhq/vigil/internal/feed"
	"github.com/vigilhq/vigil/internal/hub"
	pg "github.com/vigilhq/vigil/internal/repository/postgres"
	authsvc "github.com/vigilhq/vigil/internal/services/auth"
	"github.com/vigilhq/vigil/internal/services/publisher"
	"github.com/vigilhq/vigil/internal/services/push"
)

func initDB(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pg.DB, error) {
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	log.Info("db connected")
	return db, nil
}

type deps struct {
	Auth      *authsvc.Usecase
	Publisher *publisher.Usecase
	Hub       *hub.Hub
	Tokens    *pg.PushTokenRepo
	feed      *feed.Producer
}

func (d *deps) Close() {
	if d.feed != nil {
		_ = d.feed.Close()
	}
}

func buildDeps(ctx context.Context, cfg *config.Config, db *pg.DB, log *zap.Logger) *deps {
	alerts := pg.NewAlertRepo(db)
	users := pg.NewUserRepo(db)
	refresh := pg.NewRefreshTokenRepo(db)
	tokens := pg.NewPushTokenRepo(db)

	auth := authsvc.NewUsecase(users, refresh, authsvc.Config{
		Secret:     []byte(cfg.Auth.JWTSecret),
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})

	h := hub.New(alerts, hub.Config{
		SessionBuffer: cfg.Hub.SessionBuffer,
		WriteTimeout:  cfg.Hub.WriteTimeout,
		PingInterval:  cfg.Hub.PingInterval,
	}, log)

	// No credentials file means push stays a logged no-op; the live channel
	// carries everything.
	var gateway push.Gateway
	if cfg.Push.CredentialsFile != "" {
		fcm, err := push.NewFCMGateway(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			log.Warn("push gateway init failed; notifications disabled", zap.Error(err))
		} else {
			gateway = fcm
			log.Info("push gateway ready")
		}
	}
	dispatcher := push.NewDispatcher(tokens, gateway, cfg.Push.Timeout, log)

	var feedProducer *feed.Producer
	var feedPub publisher.FeedPublisher
	if len(cfg.Feed.Brokers) > 0 {
		feedProducer = feed.NewProducer(cfg.Feed.Brokers, cfg.Feed.Topic, log)
		feedPub = feedProducer
		log.Info("alert feed ready", zap.Strings("brokers", cfg.Feed.Brokers))
	}

	pub := publisher.NewUsecase(alerts, h, dispatcher, feedPub, log)

	return &deps{
		Auth:      auth,
		Publisher: pub,
		Hub:       h,
		Tokens:    tokens,
		feed:      feedProducer,
	}
}
