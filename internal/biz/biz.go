package biz

import (
	"go.uber.org/zap"

	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
	"github.com/DevRickLin/micropost-notify/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	User         *usecase.UserUsecase
	Post         *usecase.PostUsecase
	Preset       *usecase.PresetUsecase
	Notification *usecase.NotificationUsecase
	Digest       *usecase.DigestUsecase
}

// Stores groups the repositories the usecases are built on
type Stores struct {
	User   repo.UserRepo
	Post   repo.PostRepo
	Preset repo.PresetRepo
	Digest repo.DigestRepo
}

// NewUsecases wires every usecase against the given stores. notifier may be nil.
func NewUsecases(stores Stores, notifier repo.Notifier, digestConfig usecase.DigestConfig, clock usecase.Clock, logger *zap.Logger) *Usecases {
	notification := usecase.NewNotificationUsecase(stores.User, stores.Preset, stores.Post, clock, logger)
	return &Usecases{
		User:         usecase.NewUserUsecase(stores.User, clock),
		Post:         usecase.NewPostUsecase(stores.Post, stores.User, clock),
		Preset:       usecase.NewPresetUsecase(stores.Preset, stores.User, clock),
		Notification: notification,
		Digest:       usecase.NewDigestUsecase(stores.Digest, stores.User, notification, notifier, digestConfig, clock, logger),
	}
}
