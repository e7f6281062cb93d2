// Package admin 提供管理面板的读写：列表、详情、编辑与删除。
package admin

import (
	"context"
	"errors"
	"log/slog"

	"caseintake/internal/database"
	"caseintake/internal/store"
)

// ErrNotFound is returned when the targeted user does not exist. It is the
// store's sentinel so errors from any layer match with errors.Is.
var ErrNotFound = store.ErrNotFound

// ErrInvalidInput marks an edit rejected before any write.
var ErrInvalidInput = errors.New("invalid input")

// Store is the record-store surface used by the admin views.
type Store interface {
	FindUser(ctx context.Context, id uint) (*database.User, error)
	ListUsers(ctx context.Context, ids []uint) ([]database.User, error)
	UserIDsByStatus(ctx context.Context, status string) ([]uint, error)
	AdditionalDataFor(ctx context.Context, userIDs []uint) ([]database.AdditionalData, error)

	FindAdditionalData(ctx context.Context, userID uint) (*database.AdditionalData, error)
	FindHiringPreferences(ctx context.Context, userID uint) (*database.HiringPreferences, error)
	FindLicenses(ctx context.Context, userID uint) (*database.LicensesAndVehicles, error)
	ListWorkExperience(ctx context.Context, userID uint) ([]database.WorkExperience, error)
	ListEducation(ctx context.Context, userID uint) ([]database.EducationExperience, error)
	ListLanguageSkills(ctx context.Context, userID uint) ([]database.LanguageSkill, error)
	ListAttachments(ctx context.Context, userID uint) ([]database.Attachment, error)

	UpdateUser(ctx context.Context, id uint, patch map[string]any) error
	UpdateAdditionalData(ctx context.Context, id uint, patch map[string]any) error
	UpdateHiringPreferences(ctx context.Context, id uint, patch map[string]any) error
	InsertAdditionalData(ctx context.Context, d *database.AdditionalData) error
	InsertHiringPreferences(ctx context.Context, p *database.HiringPreferences) error
	DeleteUser(ctx context.Context, id uint) error
}

// DefaultPhoneRegion is used to interpret phone numbers written without a country prefix.
const DefaultPhoneRegion = "ES"

// Service 聚合管理面板需要的查询与变更。
type Service struct {
	store       Store
	logger      *slog.Logger
	phoneRegion string
}

// NewService builds a Service. A nil logger falls back to slog.Default().
func NewService(s Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, logger: logger, phoneRegion: DefaultPhoneRegion}
}
