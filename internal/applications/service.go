package applications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tundeafolabi/indicert-backend/internal/certificates"
	"github.com/tundeafolabi/indicert-backend/internal/verification"
	"github.com/tundeafolabi/indicert-backend/pkg/db"
	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

type applicationsRepository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	FindByID(ctx context.Context, id int64) (*models.Application, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.Application, error)
	HasOpenApplication(ctx context.Context, userID int64, state string) (bool, error)
	UpdateDraft(ctx context.Context, app *models.Application) error
	MarkSubmitted(ctx context.Context, app *models.Application) error
}

// DraftInput holds the citizen-supplied application fields.
type DraftInput struct {
	State               string
	LGA                 string
	FatherNIN           *string
	MotherNIN           *string
	SupportingDocuments []string
	DeclarationAccepted bool
}

// SubmitOutcome bundles the submitted application with its verification result.
type SubmitOutcome struct {
	Application  *models.Application
	Verification *verification.Result
}

// Service owns application intake: drafting, submission, and the automated
// verification and issuance that submission triggers.
type Service interface {
	Create(ctx context.Context, userID int64, input DraftInput) (*models.Application, error)
	Get(ctx context.Context, actorID, applicationID int64) (*models.Application, error)
	List(ctx context.Context, userID int64, limit int) ([]models.Application, error)
	UpdateDraft(ctx context.Context, userID, applicationID int64, input DraftInput) (*models.Application, error)
	Submit(ctx context.Context, userID, applicationID int64) (*SubmitOutcome, error)
}

type service struct {
	repo     applicationsRepository
	verifier verification.Service
	issuer   certificates.Service
	logg     *logger.Logger

	now func() time.Time
}

// NewService builds an applications service backed by the provided collaborators.
func NewService(repo applicationsRepository, verifier verification.Service, issuer certificates.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("applications repository required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("verification service required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("certificate service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		verifier: verifier,
		issuer:   issuer,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, userID int64, input DraftInput) (*models.Application, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if err := validateDraft(input); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	open, err := s.repo.HasOpenApplication(ctx, userID, input.State)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking existing applications")
	}
	if open {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Application already exists for this state")
	}

	app := &models.Application{
		UserID:              userID,
		State:               input.State,
		LGA:                 input.LGA,
		FatherNIN:           input.FatherNIN,
		MotherNIN:           input.MotherNIN,
		SupportingDocuments: serializeDocuments(input.SupportingDocuments),
		DeclarationAccepted: input.DeclarationAccepted,
		Status:              enums.ApplicationStatusDraft,
	}

	created, err := s.repo.Create(ctx, app)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating application")
	}

	s.logg.Info(s.logg.WithApplicationID(ctx, created.ID), "application draft created")
	return created, nil
}

func (s *service) Get(ctx context.Context, actorID, applicationID int64) (*models.Application, error) {
	if applicationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}

	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading application")
	}

	// actorID 0 is a privileged caller; everyone else sees only their own
	if actorID > 0 && app.UserID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "application belongs to another user")
	}
	return app, nil
}

func (s *service) List(ctx context.Context, userID int64, limit int) ([]models.Application, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

func (s *service) UpdateDraft(ctx context.Context, userID, applicationID int64, input DraftInput) (*models.Application, error) {
	if err := validateDraft(input); err != nil {
		return nil, err
	}

	app, err := s.ownedApplication(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != enums.ApplicationStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Only draft applications can be updated")
	}

	app.State = input.State
	app.LGA = input.LGA
	app.FatherNIN = input.FatherNIN
	app.MotherNIN = input.MotherNIN
	app.SupportingDocuments = serializeDocuments(input.SupportingDocuments)
	app.DeclarationAccepted = input.DeclarationAccepted

	if err := s.repo.UpdateDraft(ctx, app); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating draft")
	}
	return app, nil
}

func (s *service) Submit(ctx context.Context, userID, applicationID int64) (*SubmitOutcome, error) {
	app, err := s.ownedApplication(ctx, userID, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != enums.ApplicationStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Application already submitted")
	}
	if !app.DeclarationAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Declaration must be accepted")
	}

	now := s.now().UTC()
	app.Status = enums.ApplicationStatusPendingVerification
	app.SubmittedAt = &now
	if err := s.repo.MarkSubmitted(ctx, app); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Application already submitted")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "submitting application")
	}

	ctx = s.logg.WithApplicationID(ctx, app.ID)
	result, err := s.verifier.VerifyApplication(ctx, app.ID)
	if err != nil {
		// the application stays pending; verification can be retried
		return nil, err
	}

	if result.IsVerified && !result.RequiresManualReview {
		if _, err := s.issuer.GenerateCertificate(ctx, app.ID); err != nil {
			s.logg.Error(ctx, "certificate issuance after auto-approval failed", err)
			return nil, err
		}
	}

	refreshed, err := s.repo.FindByID(ctx, app.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading application")
	}

	return &SubmitOutcome{Application: refreshed, Verification: result}, nil
}

func (s *service) ownedApplication(ctx context.Context, userID, applicationID int64) (*models.Application, error) {
	if userID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}
	if applicationID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}

	app, err := s.repo.FindByID(ctx, applicationID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading application")
	}
	if app.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "application belongs to another user")
	}
	return app, nil
}

func validateDraft(input DraftInput) error {
	if input.State == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "state is required")
	}
	if input.LGA == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "lga is required")
	}
	return nil
}

func serializeDocuments(docs []string) *string {
	if len(docs) == 0 {
		return nil
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return nil
	}
	serialized := string(data)
	return &serialized
}

// DeserializeDocuments decodes a stored document-reference column back into a
// slice. Malformed payloads yield an empty slice.
func DeserializeDocuments(raw *string) []string {
	if raw == nil || *raw == "" {
		return nil
	}
	var docs []string
	if err := json.Unmarshal([]byte(*raw), &docs); err != nil {
		return nil
	}
	return docs
}
