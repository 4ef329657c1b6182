package wire

import (
	"Courier/internal/api"
	"Courier/internal/api/config"
	"Courier/internal/api/handler"
	"Courier/internal/job"
	"Courier/internal/pkg/cron"
	"Courier/internal/pkg/kafka"
	"Courier/internal/pkg/mongo"
	"Courier/internal/pkg/security"
	"Courier/internal/realtime"
	"Courier/internal/repository"
	"Courier/internal/service"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router         *gin.Engine
	DB             *gorm.DB
	IMService      service.IMService
	PresenceMirror *service.PresenceMirror
	KafkaManager   *kafka.ConsumerManager
	CronMgr        *cron.Manager
}

// BuildApplication mongoDB 仅在 im.message_store = mongo 时需要
func BuildApplication(db *gorm.DB, mongoDB *mongodrv.Database, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	convRepo := repository.NewConversationRepo(db)

	var messageRepo repository.MessageRepo
	switch cfg.IM.MessageStore {
	case config.MessageStoreMongo:
		if mongoDB == nil {
			return nil, errors.New("message store is mongo but no mongo database is configured")
		}
		messageRepo = mongo.NewMessageRepo(mongoDB)
	default:
		messageRepo = repository.NewMessageRepo(db)
	}

	var verifier security.Verifier
	switch cfg.Verifier.Mode {
	case config.VerifierModeRemote:
		verifier = security.NewRemoteVerifier(cfg.Verifier.RemoteURL, time.Duration(cfg.Verifier.RemoteTimeout)*time.Second)
	default:
		verifier = security.NewJWTVerifier(cfg.Verifier.JWTSecret, cfg.Verifier.CookieName, userRepo)
	}

	mirror := service.NewPresenceMirror()
	registry := realtime.NewRegistry(realtime.RegistryHooks{
		Superseded: service.SupersededHandler(cfg.IM.CloseSuperseded),
		Changed:    mirror.Changed,
	})

	authService := service.NewAuthService(verifier)
	convService := service.NewConversationService(convRepo)
	imService := service.NewIMService(registry, realtime.NewRooms(), convService, messageRepo, userRepo)

	handlers := &api.HandlersGroup{
		WSHandler: handler.NewWsHandler(cfg.IM, authService, imService),
		IMHandler: handler.NewIMHandler(imService),
	}
	router := api.SetupRouter(handlers, cfg)

	var kafkaMgr *kafka.ConsumerManager
	if cfg.Kafka.Enable {
		var err error
		kafkaMgr, err = kafka.NewConsumerManager(cfg, imService)
		if err != nil {
			return nil, err
		}
	}

	cronMgr := cron.NewCronManager(cfg.Cron.PresenceSync, job.NewPresenceSyncJob(imService, mirror))

	return &ApplicationContainer{
		Router:         router,
		DB:             db,
		IMService:      imService,
		PresenceMirror: mirror,
		KafkaManager:   kafkaMgr,
		CronMgr:        cronMgr,
	}, nil
}
