package services

import (
	"log/slog"

	"github.com/SAP-F-2025/answer-key-service/internal/events"
	"github.com/SAP-F-2025/answer-key-service/internal/repositories"
	"github.com/SAP-F-2025/answer-key-service/internal/review"
	"github.com/SAP-F-2025/answer-key-service/internal/validator"
)

// ServiceManager exposes every service the HTTP layer needs
type ServiceManager interface {
	AnswerKey() AnswerKeyService
	Review() ReviewService
	OutcomeMatrix() OutcomeMatrixService
	ImportExport() ImportExportService
}

// Backends groups the stores the services read from and write to. Importer
// and OutcomeSink are optional.
type Backends struct {
	AnswerKeys  repositories.AnswerKeyBackend
	Importer    repositories.AnswerKeyImporter
	Outcomes    repositories.OutcomeSource
	OutcomeSink repositories.OutcomeSink
}

type serviceManager struct {
	answerKey     AnswerKeyService
	review        ReviewService
	outcomeMatrix OutcomeMatrixService
	importExport  ImportExportService
}

// NewServiceManager wires the services over backends. A nil registry gets one
// that saves through backends.AnswerKeys and never expires sessions.
func NewServiceManager(backends Backends, registry *review.Registry, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	answerKey := NewAnswerKeyService(backends.AnswerKeys, backends.Importer, publisher, logger, validator)
	if registry == nil {
		registry = review.NewRegistry(backends.AnswerKeys)
	}
	outcomeMatrix := NewOutcomeMatrixService(backends.Outcomes, backends.OutcomeSink, publisher, logger, validator)

	return &serviceManager{
		answerKey:     answerKey,
		review:        NewReviewService(answerKey, registry, publisher, logger, validator),
		outcomeMatrix: outcomeMatrix,
		importExport:  NewImportExportService(answerKey, outcomeMatrix, logger),
	}
}

func (m *serviceManager) AnswerKey() AnswerKeyService         { return m.answerKey }
func (m *serviceManager) Review() ReviewService               { return m.review }
func (m *serviceManager) OutcomeMatrix() OutcomeMatrixService { return m.outcomeMatrix }
func (m *serviceManager) ImportExport() ImportExportService   { return m.importExport }
