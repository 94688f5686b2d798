package codes

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/voxnote/voxnote/app/models"
	"github.com/voxnote/voxnote/internal/pkg/env"
)

// Purpose selects which one-time-code table an operation runs against. The
// two tables are structurally identical; keeping them separate means a reset
// code can never verify an email and vice versa.
type Purpose string

const (
	PurposeVerify Purpose = "verify"
	PurposeReset  Purpose = "reset"
)

func (p Purpose) table() string {
	if p == PurposeReset {
		return "password_resets"
	}
	return "email_verifications"
}

// DefaultTTL returns the configured lifetime for codes of this purpose:
// 24h for verification, 1h for password resets unless overridden by env.
func DefaultTTL(p Purpose) time.Duration {
	if p == PurposeReset {
		return time.Duration(env.GetEnvInt("RESET_CODE_TTL_MIN", 60)) * time.Minute
	}
	return time.Duration(env.GetEnvInt("VERIFY_CODE_TTL_MIN", 1440)) * time.Minute
}

// codeRow mirrors the columns shared by both code tables.
type codeRow struct {
	ID        uint
	UserID    uint
	Email     string
	Code      string
	ExpiresAt time.Time
	Consumed  bool
	CreatedAt time.Time
}

// Issuer owns the one-time-code lifecycle. It never sends mail; callers
// deliver the returned plaintext code out of band.
type Issuer struct {
	db *gorm.DB
}

func NewIssuer(db *gorm.DB) *Issuer {
	return &Issuer{db: db}
}

// Issue expires every live code for (email, purpose) and persists a fresh
// 6-digit code valid for ttl. Only the newest code ever works: re-requesting
// while a code is live invalidates the old one.
func (i *Issuer) Issue(email string, userID uint, purpose Purpose, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL(purpose)
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	err = i.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Table(purpose.table()).
			Where("email = ? AND consumed = ? AND expires_at > ?", email, false, now).
			Update("expires_at", now).Error
		if err != nil {
			return err
		}

		row := codeRow{
			UserID:    userID,
			Email:     email,
			Code:      code,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		return tx.Table(purpose.table()).Create(&row).Error
	})
	if err != nil {
		return "", err
	}

	return code, nil
}

// Redeem consumes a live code. The matching row is locked for update so two
// concurrent redemptions of the same code cannot both succeed. Wrong,
// expired and already-consumed codes are indistinguishable: all return
// ok=false. For the verification purpose the owner's email_verified flag is
// flipped in the same transaction.
func (i *Issuer) Redeem(email, code string, purpose Purpose) (userID uint, ok bool, err error) {
	now := time.Now().UTC()

	err = i.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Table(purpose.table()).
			Where("email = ? AND code = ? AND consumed = ? AND expires_at > ?", email, code, false, now)
		if tx.Dialector.Name() == "mysql" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var row codeRow
		if err := query.First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil // ok stays false; the caller sees a generic failure
			}
			return err
		}

		res := tx.Table(purpose.table()).
			Where("id = ? AND consumed = ?", row.ID, false).
			Update("consumed", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race against a concurrent redemption.
			return nil
		}

		if purpose == PurposeVerify {
			err := tx.Model(&models.User{}).
				Where("id = ?", row.UserID).
				Update("email_verified", true).Error
			if err != nil {
				return err
			}
		}

		userID = row.UserID
		ok = true
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	return userID, ok, nil
}

// generateCode draws uniformly from the full zero-padded 6-digit space.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
