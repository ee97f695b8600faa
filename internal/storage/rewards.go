package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/zerbin/internal/common"
	"github.com/Veraticus/zerbin/internal/model"
)

// CreateReward adds a catalog entry.
func (s *SQLiteStorage) CreateReward(ctx context.Context, reward *model.Reward) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateReward(reward); err != nil {
		return err
	}
	return s.createRewardTx(ctx, s.db, reward)
}

func (s *SQLiteStorage) createRewardTx(ctx context.Context, q queryable, reward *model.Reward) error {
	if reward.CreatedAt.IsZero() {
		reward.CreatedAt = time.Now().UTC()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO rewards (name, description, points_required, image_url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, reward.Name, reward.Description, reward.PointsRequired, reward.ImageURL, reward.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get reward ID: %w", err)
	}
	reward.ID = id
	return nil
}

// GetReward retrieves a reward by ID.
func (s *SQLiteStorage) GetReward(ctx context.Context, id int64) (*model.Reward, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.getRewardTx(ctx, s.db, id)
}

func (s *SQLiteStorage) getRewardTx(ctx context.Context, q queryable, id int64) (*model.Reward, error) {
	var reward model.Reward
	err := q.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(description, ''), points_required, COALESCE(image_url, ''), created_at
		FROM rewards
		WHERE id = ?
	`, id).Scan(&reward.ID, &reward.Name, &reward.Description, &reward.PointsRequired, &reward.ImageURL, &reward.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NotFoundf("reward %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", classify(err))
	}
	return &reward, nil
}

// ListRewards returns the catalog cheapest first.
func (s *SQLiteStorage) ListRewards(ctx context.Context) ([]model.Reward, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listRewardsTx(ctx, s.db)
}

func (s *SQLiteStorage) listRewardsTx(ctx context.Context, q queryable) ([]model.Reward, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, COALESCE(description, ''), points_required, COALESCE(image_url, ''), created_at
		FROM rewards
		ORDER BY points_required ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var rewards []model.Reward
	for rows.Next() {
		var reward model.Reward
		if err := rows.Scan(&reward.ID, &reward.Name, &reward.Description, &reward.PointsRequired,
			&reward.ImageURL, &reward.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, reward)
	}
	return rewards, rows.Err()
}

// CreateRedemption records a redemption. The code is assigned afterwards
// with SetRedemptionCode because it derives from the generated ID.
func (s *SQLiteStorage) CreateRedemption(ctx context.Context, redemption *model.RewardRedemption) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRedemption(redemption); err != nil {
		return err
	}
	return s.createRedemptionTx(ctx, s.db, redemption)
}

func (s *SQLiteStorage) createRedemptionTx(ctx context.Context, q queryable, redemption *model.RewardRedemption) error {
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = time.Now().UTC()
	}

	var code any
	if redemption.Code != "" {
		code = redemption.Code
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO reward_redemptions (user_id, reward_id, point_cost, redemption_code, redeemed_at)
		VALUES (?, ?, ?, ?, ?)
	`, redemption.UserID, redemption.RewardID, redemption.PointCost, code, redemption.RedeemedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to create redemption: %w", classify(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get redemption ID: %w", err)
	}
	redemption.ID = id
	return nil
}

// SetRedemptionCode assigns the pickup code of a redemption.
func (s *SQLiteStorage) SetRedemptionCode(ctx context.Context, id int64, code string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(code, "code"); err != nil {
		return err
	}
	return s.setRedemptionCodeTx(ctx, s.db, id, code)
}

func (s *SQLiteStorage) setRedemptionCodeTx(ctx context.Context, q queryable, id int64, code string) error {
	result, err := q.ExecContext(ctx, `
		UPDATE reward_redemptions SET redemption_code = ? WHERE id = ?
	`, code, id)
	if err != nil {
		return fmt.Errorf("failed to set redemption code: %w", classify(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check redemption update: %w", err)
	}
	if rows == 0 {
		return common.NotFoundf("redemption %d", id)
	}
	return nil
}

// ListRedemptions returns a user's redemptions, newest first.
func (s *SQLiteStorage) ListRedemptions(ctx context.Context, userID int64) ([]model.RewardRedemption, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.listRedemptionsTx(ctx, s.db, userID)
}

func (s *SQLiteStorage) listRedemptionsTx(ctx context.Context, q queryable, userID int64) ([]model.RewardRedemption, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, reward_id, point_cost, COALESCE(redemption_code, ''), redeemed_at
		FROM reward_redemptions
		WHERE user_id = ?
		ORDER BY redeemed_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions: %w", classify(err))
	}
	defer func() { _ = rows.Close() }()

	var redemptions []model.RewardRedemption
	for rows.Next() {
		var r model.RewardRedemption
		if err := rows.Scan(&r.ID, &r.UserID, &r.RewardID, &r.PointCost, &r.Code, &r.RedeemedAt); err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}
		redemptions = append(redemptions, r)
	}
	return redemptions, rows.Err()
}
