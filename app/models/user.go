package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"

	PLAN_FREE = "free"
	PLAN_PRO  = "pro"
)

type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password           string     `gorm:"type:text" json:"-" validate:"required,min=6"`
	FullName           string     `gorm:"type:varchar(150);default:null" json:"full_name" validate:"max=150"`
	EmailVerified      bool       `gorm:"default:false" json:"email_verified"`
	Plan               string     `gorm:"type:varchar(50);default:'free'" json:"plan"`
	SummarizeCallCount int        `gorm:"default:0" json:"summarize_call_count"`
	LastSummarizeAt    *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	LastLoginAt        *time.Time `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Everything a user owns is deleted with them. The cancel-signup flow
	// relies on these cascades leaving no orphaned rows behind.
	Roles               []Role                    `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"-"`
	SubscriptionHistory []UserSubscriptionHistory `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SummarizeCalls      []SummarizeCall           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	FeedbackEntries     []UserFeedback            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tokens              []UserToken               `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	EmailVerifications  []EmailVerification       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PasswordResets      []PasswordReset           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// NewUser builds an unverified user with a hashed password. The row is not
// persisted here; repository.Create owns the transactional insert.
// Validation runs against the plaintext password, before hashing.
func NewUser(email string, password string, fullName string) (*User, error) {
	u := &User{
		Email:    email,
		Password: password,
		FullName: fullName,
		Plan:     PLAN_FREE,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	if err := u.SetPassword(password); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}
