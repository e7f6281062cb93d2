package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"caseintake/internal/database"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOperatorExists     = errors.New("operator already exists")
)

// Operators 管理可登录管理面板的账号。
type Operators struct {
	db *gorm.DB
}

// NewOperators 构造 Operators。
func NewOperators(db *gorm.DB) *Operators {
	return &Operators{db: db}
}

// Create stores a new operator with a bcrypt hash of password.
func (o *Operators) Create(ctx context.Context, username, password string) (*database.Operator, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("username is required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must have at least 8 characters")
	}

	var count int64
	if err := o.db.WithContext(ctx).Model(&database.Operator{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check operator %q: %w", username, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", ErrOperatorExists, username)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	op := &database.Operator{Username: username, PasswordHash: hash}
	if err := o.db.WithContext(ctx).Create(op).Error; err != nil {
		return nil, fmt.Errorf("create operator %q: %w", username, err)
	}
	return op, nil
}

// Authenticate returns the operator when username and password match.
func (o *Operators) Authenticate(ctx context.Context, username, password string) (*database.Operator, error) {
	var op database.Operator
	err := o.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&op).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load operator: %w", err)
	}
	if !CheckPasswordHash(password, op.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &op, nil
}
