package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"caseintake/internal/database"
	"caseintake/internal/metrics"
	"caseintake/internal/store"
)

// ErrStore marks a failed write of the primary user row.
var ErrStore = errors.New("store write failed")

// RecordStore is the subset of the record store the writer needs.
type RecordStore interface {
	InsertUser(ctx context.Context, u *database.User) error
	InsertAdditionalData(ctx context.Context, d *database.AdditionalData) error
	InsertHiringPreferences(ctx context.Context, p *database.HiringPreferences) error
	InsertLicenses(ctx context.Context, l *database.LicensesAndVehicles) error
	InsertWorkExperience(ctx context.Context, w *database.WorkExperience) error
	InsertEducation(ctx context.Context, e *database.EducationExperience) error
	InsertLanguageSkill(ctx context.Context, l *database.LanguageSkill) error
	InsertAttachment(ctx context.Context, a *database.Attachment) error
}

// BucketEnsurer makes sure the upload bucket exists.
type BucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

// DependentFailure records one swallowed dependent insert.
type DependentFailure struct {
	Entity string
	Err    error
}

// WriteReport 仅用于日志与指标，不影响返回给调用方的结果。
type WriteReport struct {
	UserID   uint
	Failures []DependentFailure
}

// Writer 顺序执行一次提交的全部写入：无事务、无补偿。
type Writer struct {
	Store   RecordStore
	Buckets BucketEnsurer
	Logger  *slog.Logger
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// Write persists sub. Only a failed user insert, including a user row with an
// unparsable date, is returned as an error (wrapping ErrStore); every later
// failure is logged and listed in the report.
func (w *Writer) Write(ctx context.Context, sub *Submission) (*WriteReport, error) {
	log := w.logger()

	if w.Buckets != nil {
		if err := w.Buckets.EnsureBucket(ctx); err != nil {
			log.Warn("ensure upload bucket failed", "error", err)
		}
	}

	if err := sub.dateError(store.EntityUser); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrStore, store.EntityUser, err)
	}
	if err := w.Store.InsertUser(ctx, &sub.User); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	sub.Bind(sub.User.ID)

	report := &WriteReport{UserID: sub.User.ID}
	record := func(entity string, err error) {
		if err == nil {
			return
		}
		log.Error("dependent insert failed", "entity", entity, "user_id", sub.User.ID, "error", err)
		metrics.ObserveDependentFailure(entity)
		report.Failures = append(report.Failures, DependentFailure{Entity: entity, Err: err})
	}

	// 日期无法解析的实体跳过写入，按失败记录。
	checked := func(entity string, insert func() error) error {
		if err := sub.dateError(entity); err != nil {
			return err
		}
		return insert()
	}

	record(store.EntityAdditionalData, checked(store.EntityAdditionalData, func() error {
		return w.Store.InsertAdditionalData(ctx, &sub.AdditionalData)
	}))
	record(store.EntityHiringPreferences, checked(store.EntityHiringPreferences, func() error {
		return w.Store.InsertHiringPreferences(ctx, &sub.HiringPreferences)
	}))
	record(store.EntityLicenses, w.Store.InsertLicenses(ctx, &sub.Licenses))
	for i := range sub.WorkExperience {
		record(store.EntityWorkExperience, w.Store.InsertWorkExperience(ctx, &sub.WorkExperience[i]))
	}
	for i := range sub.Education {
		record(store.EntityEducation, w.Store.InsertEducation(ctx, &sub.Education[i]))
	}
	for i := range sub.Languages {
		record(store.EntityLanguageSkill, w.Store.InsertLanguageSkill(ctx, &sub.Languages[i]))
	}
	for i := range sub.Attachments {
		record(store.EntityAttachment, w.Store.InsertAttachment(ctx, &sub.Attachments[i]))
	}

	return report, nil
}
