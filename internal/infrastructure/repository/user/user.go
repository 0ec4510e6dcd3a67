package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	user_domain "github.com/yaronsela1/productivity-bot/internal/domain/user"
	"github.com/yaronsela1/productivity-bot/internal/infrastructure/db"
)

type userRepo struct {
	queries *db.Queries
}

var _ user_domain.UserRepo = (*userRepo)(nil)

func NewUserRepo(dbConn *sql.DB, driver db.Driver) user_domain.UserRepo {
	return &userRepo{
		queries: db.New(dbConn, driver),
	}
}

func (r *userRepo) GetUser(ctx context.Context, email string) (*user_domain.UserConfig, error) {
	dbUser, err := r.queries.GetUser(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return r.dbUserToDomain(dbUser)
}

func (r *userRepo) SaveUser(ctx context.Context, email string, patch user_domain.UserConfigPatch) error {
	var whitelist, checkInterval, slackWebhook sql.NullString
	var updatedAt sql.NullInt64

	if patch.Whitelist != nil {
		list := *patch.Whitelist
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		if err != nil {
			return fmt.Errorf("failed to encode whitelist: %w", err)
		}
		whitelist = sql.NullString{String: string(b), Valid: true}
	}
	if patch.CheckInterval != nil {
		checkInterval = sql.NullString{String: string(*patch.CheckInterval), Valid: true}
	}
	if patch.SlackWebhook != nil {
		slackWebhook = sql.NullString{String: *patch.SlackWebhook, Valid: true}
	}
	if !patch.UpdatedAt.IsZero() {
		updatedAt = sql.NullInt64{Int64: patch.UpdatedAt.Unix(), Valid: true}
	}

	err := r.queries.UpsertUser(ctx, db.UpsertUserParams{
		Email:         email,
		Whitelist:     whitelist,
		CheckInterval: checkInterval,
		SlackWebhook:  slackWebhook,
		UpdatedAt:     updatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

func (r *userRepo) ListUsersByInterval(ctx context.Context, interval user_domain.Interval) ([]user_domain.UserConfig, error) {
	dbUsers, err := r.queries.ListUsersByInterval(ctx, string(interval))
	if err != nil {
		return nil, fmt.Errorf("failed to list users by interval: %w", err)
	}

	users := make([]user_domain.UserConfig, 0, len(dbUsers))
	for _, dbUser := range dbUsers {
		u, err := r.dbUserToDomain(dbUser)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, nil
}

func (r *userRepo) dbUserToDomain(dbUser db.User) (*user_domain.UserConfig, error) {
	u := &user_domain.UserConfig{
		Email:         dbUser.Email,
		Whitelist:     []string{},
		CheckInterval: user_domain.Interval(dbUser.CheckInterval),
	}

	if dbUser.Whitelist != "" {
		if err := json.Unmarshal([]byte(dbUser.Whitelist), &u.Whitelist); err != nil {
			return nil, fmt.Errorf("failed to decode whitelist for %s: %w", dbUser.Email, err)
		}
	}
	if u.CheckInterval == "" {
		u.CheckInterval = user_domain.DefaultInterval
	}
	if dbUser.SlackWebhook.Valid {
		webhook := dbUser.SlackWebhook.String
		u.SlackWebhook = &webhook
	}
	if dbUser.UpdatedAt.Valid {
		u.UpdatedAt = time.Unix(dbUser.UpdatedAt.Int64, 0)
	}

	return u, nil
}
