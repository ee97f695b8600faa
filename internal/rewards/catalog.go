// Package rewards implements the rewards catalog and point redemption.
package rewards

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/ledger"
	"github.com/Veraticus/zerbin/internal/model"
	"github.com/Veraticus/zerbin/internal/service"
)

// Config holds configuration options for the catalog.
type Config struct {
	CodePrefix    string
	PickupMessage string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CodePrefix:    "ZERBIN",
		PickupMessage: "Show this code at any collection point to pick up your reward.",
	}
}

// Catalog lists rewards and exchanges points for them.
type Catalog struct {
	storage service.Storage
	locker  service.Locker
	config  Config
	retry   service.RetryOptions
}

// Wallet is a user's balance together with what it can buy.
type Wallet struct {
	Affordable []model.Reward `json:"redeemable_rewards"`
	Next       *model.Reward  `json:"next_reward,omitempty"`
	UserID     int64          `json:"user_id"`
	Points     int            `json:"points"`
}

// New creates a catalog with the default configuration.
func New(storage service.Storage, locker service.Locker) *Catalog {
	return NewWithConfig(storage, locker, DefaultConfig())
}

// NewWithConfig creates a catalog with custom configuration.
func NewWithConfig(storage service.Storage, locker service.Locker, config Config) *Catalog {
	defaults := DefaultConfig()
	if strings.TrimSpace(config.CodePrefix) == "" {
		config.CodePrefix = defaults.CodePrefix
	}
	if strings.TrimSpace(config.PickupMessage) == "" {
		config.PickupMessage = defaults.PickupMessage
	}
	return &Catalog{
		storage: storage,
		locker:  locker,
		config:  config,
		retry:   common.DefaultRetryOptions(),
	}
}

// RedemptionCode formats the human readable code for a redemption ID.
func (c *Catalog) RedemptionCode(id int64) string {
	return fmt.Sprintf("%s-%06d", c.config.CodePrefix, id)
}

// List returns all rewards, cheapest first.
func (c *Catalog) List(ctx context.Context) ([]model.Reward, error) {
	return c.storage.ListRewards(ctx)
}

// Create adds a reward to the catalog.
func (c *Catalog) Create(ctx context.Context, name, description string, pointsRequired int, imageURL string) (*model.Reward, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.Validationf("reward name is required")
	}
	if pointsRequired <= 0 {
		return nil, common.Validationf("points required must be positive, got %d", pointsRequired)
	}

	reward := &model.Reward{
		Name:           name,
		Description:    strings.TrimSpace(description),
		PointsRequired: pointsRequired,
		ImageURL:       strings.TrimSpace(imageURL),
	}
	if err := c.storage.CreateReward(ctx, reward); err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}

	slog.InfoContext(ctx, "Created reward", "reward_id", reward.ID, "name", reward.Name, "points_required", reward.PointsRequired)
	return reward, nil
}

// Redeem exchanges a user's points for a reward. The balance check, debit
// and redemption insert commit together or not at all.
func (c *Catalog) Redeem(ctx context.Context, userID, rewardID int64) (*model.RedemptionRecord, error) {
	unlock, err := c.locker.Lock(ctx, ledger.LockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer unlock()

	var record *model.RedemptionRecord
	err = common.WithRetry(ctx, func() error {
		var redeemErr error
		record, redeemErr = c.redeemOnce(ctx, userID, rewardID)
		return redeemErr
	}, c.retry)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Reward redeemed",
		"user_id", userID,
		"reward_id", rewardID,
		"code", record.Code,
		"points", record.PointCost,
		"balance", record.UserPoints)
	return record, nil
}

func (c *Catalog) redeemOnce(ctx context.Context, userID, rewardID int64) (*model.RedemptionRecord, error) {
	tx, err := c.storage.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	reward, err := tx.GetReward(ctx, rewardID)
	if err != nil {
		return nil, err
	}

	balance, err := tx.DebitPoints(ctx, userID, reward.PointsRequired)
	if err != nil {
		return nil, err
	}

	redemption := &model.RewardRedemption{
		UserID:    userID,
		RewardID:  rewardID,
		PointCost: reward.PointsRequired,
	}
	if err := tx.CreateRedemption(ctx, redemption); err != nil {
		return nil, err
	}

	redemption.Code = c.RedemptionCode(redemption.ID)
	if err := tx.SetRedemptionCode(ctx, redemption.ID, redemption.Code); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.RedemptionRecord{
		RewardRedemption:  *redemption,
		RewardName:        reward.Name,
		RewardDescription: reward.Description,
		PickupMessage:     c.config.PickupMessage,
		UserPoints:        balance,
	}, nil
}

// Wallet returns the user's balance, the rewards it covers and the cheapest
// reward still out of reach.
func (c *Catalog) Wallet(ctx context.Context, userID int64) (*Wallet, error) {
	user, err := c.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rewards, err := c.storage.ListRewards(ctx)
	if err != nil {
		return nil, err
	}

	wallet := &Wallet{UserID: userID, Points: user.Points, Affordable: []model.Reward{}}
	for i := range rewards {
		if rewards[i].PointsRequired <= user.Points {
			wallet.Affordable = append(wallet.Affordable, rewards[i])
			continue
		}
		if wallet.Next == nil {
			next := rewards[i]
			wallet.Next = &next
		}
	}
	return wallet, nil
}

// Redemptions returns a user's past redemptions enriched with reward details.
func (c *Catalog) Redemptions(ctx context.Context, userID int64) ([]model.RedemptionRecord, error) {
	user, err := c.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	redemptions, err := c.storage.ListRedemptions(ctx, userID)
	if err != nil {
		return nil, err
	}

	rewards, err := c.storage.ListRewards(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Reward, len(rewards))
	for _, r := range rewards {
		byID[r.ID] = r
	}

	records := make([]model.RedemptionRecord, 0, len(redemptions))
	for _, r := range redemptions {
		reward := byID[r.RewardID]
		records = append(records, model.RedemptionRecord{
			RewardRedemption:  r,
			RewardName:        reward.Name,
			RewardDescription: reward.Description,
			PickupMessage:     c.config.PickupMessage,
			UserPoints:        user.Points,
		})
	}
	return records, nil
}
