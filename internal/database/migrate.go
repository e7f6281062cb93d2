package database

import (
	"fmt"

	"gorm.io/gorm"
)

// Models 返回需要迁移的全部模型，usuarios 必须排在依赖表之前。
func Models() []any {
	return []any{
		&User{},
		&AdditionalData{},
		&HiringPreferences{},
		&LicensesAndVehicles{},
		&WorkExperience{},
		&EducationExperience{},
		&LanguageSkill{},
		&Attachment{},
		&Operator{},
	}
}

// Migrate creates or updates every table, including the ON DELETE CASCADE
// foreign keys that remove a user's dependent rows.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
