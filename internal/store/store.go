// Package store 是关系型存储的唯一入口：按实体提供 insert / update / select / delete。
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"caseintake/internal/database"
	"caseintake/internal/metrics"
)

// ErrNotFound is returned when a targeted row does not exist.
var ErrNotFound = errors.New("record not found")

// Entity labels used in errors and metrics.
const (
	EntityUser              = "usuarios"
	EntityAdditionalData    = "datos_adicionales"
	EntityHiringPreferences = "preferencias_contratacion"
	EntityLicenses          = "carnets_vehiculos"
	EntityWorkExperience    = "experiencias_laborales"
	EntityEducation         = "experiencias_formativas"
	EntityLanguageSkill     = "idiomas_usuario"
	EntityAttachment        = "archivos"
)

// Store 基于 GORM 实现各实体的读写。
type Store struct {
	db *gorm.DB
}

// New 构造 Store。
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func insert[T any](ctx context.Context, db *gorm.DB, entity string, row *T) error {
	err := db.WithContext(ctx).Create(row).Error
	metrics.ObserveStoreOperation(entity, "insert", err)
	if err != nil {
		return fmt.Errorf("insert %s: %w", entity, err)
	}
	return nil
}

// firstByUser 返回 usuario_id 对应的唯一一行；不存在时返回 (nil, nil)。
func firstByUser[T any](ctx context.Context, db *gorm.DB, entity string, userID uint) (*T, error) {
	var rows []T
	err := db.WithContext(ctx).Where("usuario_id = ?", userID).Order("id").Limit(1).Find(&rows).Error
	metrics.ObserveStoreOperation(entity, "select", err)
	if err != nil {
		return nil, fmt.Errorf("select %s for user %d: %w", entity, userID, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func listByUser[T any](ctx context.Context, db *gorm.DB, entity string, userID uint) ([]T, error) {
	rows := make([]T, 0)
	err := db.WithContext(ctx).Where("usuario_id = ?", userID).Order("id").Find(&rows).Error
	metrics.ObserveStoreOperation(entity, "select", err)
	if err != nil {
		return nil, fmt.Errorf("select %s for user %d: %w", entity, userID, err)
	}
	return rows, nil
}

func updateByID[T any](ctx context.Context, db *gorm.DB, entity string, id uint, patch map[string]any) error {
	var model T
	res := db.WithContext(ctx).Model(&model).Where("id = ?", id).Updates(patch)
	metrics.ObserveStoreOperation(entity, "update", res.Error)
	if res.Error != nil {
		return fmt.Errorf("update %s %d: %w", entity, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}

// InsertUser 写入主记录并回填生成的 ID。
func (s *Store) InsertUser(ctx context.Context, u *database.User) error {
	return insert(ctx, s.db, EntityUser, u)
}

func (s *Store) InsertAdditionalData(ctx context.Context, d *database.AdditionalData) error {
	return insert(ctx, s.db, EntityAdditionalData, d)
}

func (s *Store) InsertHiringPreferences(ctx context.Context, p *database.HiringPreferences) error {
	return insert(ctx, s.db, EntityHiringPreferences, p)
}

func (s *Store) InsertLicenses(ctx context.Context, l *database.LicensesAndVehicles) error {
	return insert(ctx, s.db, EntityLicenses, l)
}

func (s *Store) InsertWorkExperience(ctx context.Context, w *database.WorkExperience) error {
	return insert(ctx, s.db, EntityWorkExperience, w)
}

func (s *Store) InsertEducation(ctx context.Context, e *database.EducationExperience) error {
	return insert(ctx, s.db, EntityEducation, e)
}

func (s *Store) InsertLanguageSkill(ctx context.Context, l *database.LanguageSkill) error {
	return insert(ctx, s.db, EntityLanguageSkill, l)
}

func (s *Store) InsertAttachment(ctx context.Context, a *database.Attachment) error {
	return insert(ctx, s.db, EntityAttachment, a)
}

// FindUser 按 ID 读取主记录，不存在时返回 ErrNotFound。
func (s *Store) FindUser(ctx context.Context, id uint) (*database.User, error) {
	var user database.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		metrics.ObserveStoreOperation(EntityUser, "select", nil)
		return nil, fmt.Errorf("select %s %d: %w", EntityUser, id, ErrNotFound)
	case err != nil:
		metrics.ObserveStoreOperation(EntityUser, "select", err)
		return nil, fmt.Errorf("select %s %d: %w", EntityUser, id, err)
	}
	metrics.ObserveStoreOperation(EntityUser, "select", nil)
	return &user, nil
}

// ListUsers 按创建时间倒序返回用户。ids 为 nil 表示不过滤；空切片返回空结果。
func (s *Store) ListUsers(ctx context.Context, ids []uint) ([]database.User, error) {
	users := make([]database.User, 0)
	if ids != nil && len(ids) == 0 {
		return users, nil
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if ids != nil {
		q = q.Where("id IN ?", ids)
	}
	err := q.Find(&users).Error
	metrics.ObserveStoreOperation(EntityUser, "select", err)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", EntityUser, err)
	}
	return users, nil
}

// UserIDsByStatus 返回 datos_adicionales.estado 等于 status 的 usuario_id。
func (s *Store) UserIDsByStatus(ctx context.Context, status string) ([]uint, error) {
	ids := make([]uint, 0)
	err := s.db.WithContext(ctx).
		Model(&database.AdditionalData{}).
		Where("estado = ?", status).
		Pluck("usuario_id", &ids).Error
	metrics.ObserveStoreOperation(EntityAdditionalData, "select", err)
	if err != nil {
		return nil, fmt.Errorf("select %s ids by status %q: %w", EntityAdditionalData, status, err)
	}
	return ids, nil
}

// AdditionalDataFor 批量读取一组用户的附加数据。
func (s *Store) AdditionalDataFor(ctx context.Context, userIDs []uint) ([]database.AdditionalData, error) {
	rows := make([]database.AdditionalData, 0)
	if len(userIDs) == 0 {
		return rows, nil
	}
	err := s.db.WithContext(ctx).Where("usuario_id IN ?", userIDs).Order("id").Find(&rows).Error
	metrics.ObserveStoreOperation(EntityAdditionalData, "select", err)
	if err != nil {
		return nil, fmt.Errorf("select %s batch: %w", EntityAdditionalData, err)
	}
	return rows, nil
}

func (s *Store) FindAdditionalData(ctx context.Context, userID uint) (*database.AdditionalData, error) {
	return firstByUser[database.AdditionalData](ctx, s.db, EntityAdditionalData, userID)
}

func (s *Store) FindHiringPreferences(ctx context.Context, userID uint) (*database.HiringPreferences, error) {
	return firstByUser[database.HiringPreferences](ctx, s.db, EntityHiringPreferences, userID)
}

func (s *Store) FindLicenses(ctx context.Context, userID uint) (*database.LicensesAndVehicles, error) {
	return firstByUser[database.LicensesAndVehicles](ctx, s.db, EntityLicenses, userID)
}

func (s *Store) ListWorkExperience(ctx context.Context, userID uint) ([]database.WorkExperience, error) {
	return listByUser[database.WorkExperience](ctx, s.db, EntityWorkExperience, userID)
}

func (s *Store) ListEducation(ctx context.Context, userID uint) ([]database.EducationExperience, error) {
	return listByUser[database.EducationExperience](ctx, s.db, EntityEducation, userID)
}

func (s *Store) ListLanguageSkills(ctx context.Context, userID uint) ([]database.LanguageSkill, error) {
	return listByUser[database.LanguageSkill](ctx, s.db, EntityLanguageSkill, userID)
}

func (s *Store) ListAttachments(ctx context.Context, userID uint) ([]database.Attachment, error) {
	return listByUser[database.Attachment](ctx, s.db, EntityAttachment, userID)
}

// UpdateUser 以列名 → 值的 patch 更新主记录；用户不存在时返回 ErrNotFound。
func (s *Store) UpdateUser(ctx context.Context, id uint, patch map[string]any) error {
	return updateByID[database.User](ctx, s.db, EntityUser, id, patch)
}

func (s *Store) UpdateAdditionalData(ctx context.Context, id uint, patch map[string]any) error {
	return updateByID[database.AdditionalData](ctx, s.db, EntityAdditionalData, id, patch)
}

func (s *Store) UpdateHiringPreferences(ctx context.Context, id uint, patch map[string]any) error {
	return updateByID[database.HiringPreferences](ctx, s.db, EntityHiringPreferences, id, patch)
}

// DeleteUser 删除主记录；依赖表由外键 ON DELETE CASCADE 清理。
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&database.User{}, id)
	metrics.ObserveStoreOperation(EntityUser, "delete", res.Error)
	if res.Error != nil {
		return fmt.Errorf("delete %s %d: %w", EntityUser, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s %d: %w", EntityUser, id, ErrNotFound)
	}
	return nil
}
