// Package intake turns a submitted form into the user record and its dependents.
package intake

import (
	"context"
	"errors"
	"log/slog"

	"caseintake/internal/metrics"
)

// User-facing outcome messages.
const (
	MessageSaved         = "Formulario guardado correctamente"
	MessageMissingFields = "Faltan campos obligatorios"
	MessageUserFailed    = "Error al guardar los datos del usuario"
	MessageFailed        = "Error al guardar el formulario"
)

// Outcome classifies a submission for transport status codes and metrics.
type Outcome string

const (
	OutcomeSaved   Outcome = "saved"
	OutcomePartial Outcome = "partial"
	OutcomeInvalid Outcome = "invalid"
	OutcomeFailed  Outcome = "store_error"
)

// Result 是返回给提交方的结果。
type Result struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	UserID  uint    `json:"-"`
	Outcome Outcome `json:"-"`
}

// Service wires assembly and writing.
type Service struct {
	Writer *Writer
	Logger *slog.Logger
}

// NewService builds a Service over the given store and bucket capability.
func NewService(records RecordStore, buckets BucketEnsurer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Writer: &Writer{Store: records, Buckets: buckets, Logger: logger},
		Logger: logger,
	}
}

// Submit validates and stores one form. It never returns an error: every
// outcome is folded into Result.
func (s *Service) Submit(ctx context.Context, form Form) Result {
	sub, err := Assemble(form)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.Logger.Info("intake rejected", "missing", verr.Missing)
			metrics.ObserveSubmission(string(OutcomeInvalid))
			return Result{Message: MessageMissingFields, Outcome: OutcomeInvalid}
		}
		s.Logger.Error("assemble intake failed", "error", err)
		metrics.ObserveSubmission(string(OutcomeFailed))
		return Result{Message: MessageFailed, Outcome: OutcomeFailed}
	}

	report, err := s.Writer.Write(ctx, sub)
	if err != nil {
		s.Logger.Error("insert user failed", "error", err)
		metrics.ObserveSubmission(string(OutcomeFailed))
		if errors.Is(err, ErrStore) {
			return Result{Message: MessageUserFailed, Outcome: OutcomeFailed}
		}
		return Result{Message: MessageFailed, Outcome: OutcomeFailed}
	}

	outcome := OutcomeSaved
	if len(report.Failures) > 0 {
		outcome = OutcomePartial
	}
	metrics.ObserveSubmission(string(outcome))
	s.Logger.Info("intake saved", "user_id", report.UserID, "dependent_failures", len(report.Failures), "plan", sub.String())
	return Result{Success: true, Message: MessageSaved, UserID: report.UserID, Outcome: outcome}
}
