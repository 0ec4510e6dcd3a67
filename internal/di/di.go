package di

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/yaronsela1/productivity-bot/internal/config"
	checkdomain "github.com/yaronsela1/productivity-bot/internal/domain/check"
	gmaildomain "github.com/yaronsela1/productivity-bot/internal/domain/gmail"
	googledomain "github.com/yaronsela1/productivity-bot/internal/domain/google"
	slackdomain "github.com/yaronsela1/productivity-bot/internal/domain/slack"
	tokendomain "github.com/yaronsela1/productivity-bot/internal/domain/token"
	userdomain "github.com/yaronsela1/productivity-bot/internal/domain/user"
	"github.com/yaronsela1/productivity-bot/internal/infrastructure/db"
	checkrepo "github.com/yaronsela1/productivity-bot/internal/infrastructure/repository/check"
	gmailrepo "github.com/yaronsela1/productivity-bot/internal/infrastructure/repository/gmail"
	googlerepo "github.com/yaronsela1/productivity-bot/internal/infrastructure/repository/google"
	slackrepo "github.com/yaronsela1/productivity-bot/internal/infrastructure/repository/slack"
	tokenrepo "github.com/yaronsela1/productivity-bot/internal/infrastructure/repository/token"
	userrepo "github.com/yaronsela1/productivity-bot/internal/infrastructure/repository/user"
	"github.com/yaronsela1/productivity-bot/internal/service/account"
	"github.com/yaronsela1/productivity-bot/internal/service/dispatch"
	"github.com/yaronsela1/productivity-bot/internal/service/notification"
	"github.com/yaronsela1/productivity-bot/internal/service/scheduler"
	"github.com/yaronsela1/productivity-bot/internal/service/session"
)

type Container struct {
	DB          *sql.DB
	UserRepo    userdomain.UserRepo
	TokenRepo   tokendomain.TokenRepo
	GmailRepo   gmaildomain.GmailRepo
	SlackRepo   slackdomain.SlackRepo
	MentionRepo slackdomain.MentionRepo
	AuthRepo    googledomain.AuthRepo
	CheckRepo   checkdomain.CheckRepo

	Sessions            *session.Store
	NotificationService *notification.Service
	AccountService      *account.Service
	DispatchService     *dispatch.Service
	Scheduler           *scheduler.Scheduler
}

func NewContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	conn, err := db.Open(ctx, db.Config{
		Driver:   db.Driver(cfg.DBDriver),
		Path:     cfg.DBPath,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	driver := db.Driver(cfg.DBDriver)
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	// check calls are bounded per request by the dispatcher
	checkClient := &http.Client{}

	userRepo := userrepo.NewUserRepo(conn, driver)
	tokenRepo := tokenrepo.NewTokenRepo(conn, driver)
	gmailRepo := gmailrepo.NewGmailRepo(httpClient)
	slackRepo := slackrepo.NewSlackRepo(httpClient)
	mentionRepo := slackrepo.NewMentionRepo()
	authRepo := googlerepo.NewAuthRepo(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.BaseURLTrimmed()+"/auth/google/callback",
		httpClient,
	)
	checkRepo := checkrepo.NewCheckRepo(cfg.BaseURLTrimmed(), cfg.CronSecret, checkClient)

	sessions := session.NewStore(cfg.SessionTTL)

	notificationService := notification.NewService(gmailRepo, slackRepo, mentionRepo, userRepo)
	accountService := account.NewService(authRepo, tokenRepo, userRepo, sessions)
	dispatchService := dispatch.NewService(userRepo, checkRepo, dispatch.Options{
		Concurrency: cfg.DispatchConcurrency,
		Timeout:     cfg.DispatchTimeout,
	})

	return &Container{
		DB:                  conn,
		UserRepo:            userRepo,
		TokenRepo:           tokenRepo,
		GmailRepo:           gmailRepo,
		SlackRepo:           slackRepo,
		MentionRepo:         mentionRepo,
		AuthRepo:            authRepo,
		CheckRepo:           checkRepo,
		Sessions:            sessions,
		NotificationService: notificationService,
		AccountService:      accountService,
		DispatchService:     dispatchService,
		Scheduler:           scheduler.New(dispatchService),
	}, nil
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func SecureCookies(cfg config.Config) bool {
	return strings.HasPrefix(cfg.BaseURL, "https://")
}

func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
