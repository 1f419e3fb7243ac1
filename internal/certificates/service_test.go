package certificates

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tundeafolabi/indicert-backend/internal/audit"
	"github.com/tundeafolabi/indicert-backend/internal/locks"
	"github.com/tundeafolabi/indicert-backend/pkg/config"
	"github.com/tundeafolabi/indicert-backend/pkg/db/models"
	"github.com/tundeafolabi/indicert-backend/pkg/enums"
	pkgerrors "github.com/tundeafolabi/indicert-backend/pkg/errors"
	"github.com/tundeafolabi/indicert-backend/pkg/logger"
)

type stubCertRepo struct {
	app        *models.Application
	certs      map[string]*models.Certificate
	created    *models.Certificate
	revoked    *models.Certificate
	takenIDs   map[string]bool
	existCalls int
}

func newStubCertRepo() *stubCertRepo {
	return &stubCertRepo{
		certs:    map[string]*models.Certificate{},
		takenIDs: map[string]bool{},
	}
}

func (s *stubCertRepo) FindApplicationForIssuance(ctx context.Context, applicationID int64) (*models.Application, error) {
	if s.app == nil || s.app.ID != applicationID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.app, nil
}

func (s *stubCertRepo) FindByCertificateID(ctx context.Context, certificateID string) (*models.Certificate, error) {
	cert, ok := s.certs[certificateID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cert, nil
}

func (s *stubCertRepo) ExistsCertificateID(ctx context.Context, certificateID string) (bool, error) {
	s.existCalls++
	return s.takenIDs[certificateID], nil
}

func (s *stubCertRepo) Create(ctx context.Context, cert *models.Certificate) (*models.Certificate, error) {
	cert.ID = int64(len(s.certs) + 1)
	s.certs[cert.CertificateID] = cert
	s.created = cert
	return cert, nil
}

func (s *stubCertRepo) ApplyRevocation(ctx context.Context, cert *models.Certificate) error {
	s.revoked = cert
	return nil
}

type memoryStore struct {
	files map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{files: map[string][]byte{}}
}

func (m *memoryStore) Write(ctx context.Context, name string, data []byte) (string, error) {
	m.files[name] = data
	return name, nil
}

func (m *memoryStore) Read(ctx context.Context, rel string) ([]byte, error) {
	data, ok := m.files[rel]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

type stubAuditService struct {
	entries []audit.Entry
}

func (s *stubAuditService) LogAction(ctx context.Context, entry audit.Entry) {
	s.entries = append(s.entries, entry)
}

func (s *stubAuditService) ListByApplication(ctx context.Context, applicationID int64, limit int) ([]models.AuditLog, error) {
	return nil, nil
}

func (s *stubAuditService) ListByAction(ctx context.Context, action string, limit int) ([]models.AuditLog, error) {
	return nil, nil
}

func approvedApplication() *models.Application {
	docs := "doc-1.pdf"
	now := time.Now().UTC()
	return &models.Application{
		ID:                  7,
		UserID:              1,
		State:               "Lagos",
		LGA:                 "Ikeja",
		SupportingDocuments: &docs,
		DeclarationAccepted: true,
		Status:              enums.ApplicationStatusApproved,
		ApprovedAt:          &now,
		VerifiedAt:          &now,
		User:                &models.User{ID: 1, NIN: "11111111111", FirstName: "Ada", LastName: "Obi"},
	}
}

func newCertService(t *testing.T, repo *stubCertRepo, store *memoryStore, auditor *stubAuditService) *service {
	t.Helper()
	logg := logger.New(logger.Options{Output: io.Discard})
	cfg := config.CertificatesConfig{
		BaseURL:       "https://indicert.gov.ng",
		ArtifactsDir:  t.TempDir(),
		IDMaxAttempts: 5,
		ValidityYears: 10,
		QRSizePixels:  128,
	}
	svc, err := NewService(repo, store, auditor, locks.NewKeyedMutex(), cfg, logg, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc.(*service)
}

func TestGenerateCertificateRoundTrip(t *testing.T) {
	repo := newStubCertRepo()
	repo.app = approvedApplication()
	store := newMemoryStore()
	auditor := &stubAuditService{}
	svc := newCertService(t, repo, store, auditor)

	ctx := context.Background()
	cert, err := svc.GenerateCertificate(ctx, repo.app.ID)
	if err != nil {
		t.Fatalf("GenerateCertificate failed: %v", err)
	}

	if !CertificateIDPattern.MatchString(cert.CertificateID) {
		t.Fatalf("certificate id %q violates the format", cert.CertificateID)
	}
	if cert.Status != enums.CertificateStatusActive {
		t.Fatalf("status = %s, want Active", cert.Status)
	}
	if cert.ExpiresAt.Year()-cert.IssuedAt.Year() != 10 {
		t.Fatalf("expected 10 year validity, got %s to %s", cert.IssuedAt, cert.ExpiresAt)
	}
	if cert.QRCodeData == "" {
		t.Fatal("expected qr payload")
	}
	if len(cert.Hash) != 64 {
		t.Fatalf("expected sha-256 hex hash, got %q", cert.Hash)
	}
	if len(auditor.entries) != 1 || auditor.entries[0].Action != audit.ActionCertificateGenerated {
		t.Fatalf("expected CertificateGenerated audit entry, got %+v", auditor.entries)
	}

	// link the issued certificate for verification
	cert.Application = repo.app
	result, err := svc.VerifyCertificate(ctx, cert.CertificateID)
	if err != nil {
		t.Fatalf("VerifyCertificate failed: %v", err)
	}
	if !result.IsValid {
		t.Fatalf("expected valid certificate, got %+v", result)
	}
	if result.Status != "Active" {
		t.Fatalf("status = %q, want Active", result.Status)
	}
	if result.Message != "Certificate is valid" {
		t.Fatalf("message = %q", result.Message)
	}
	if result.Name != "Ada Obi" {
		t.Fatalf("name = %q", result.Name)
	}
}

func TestGenerateCertificateIdempotent(t *testing.T) {
	repo := newStubCertRepo()
	repo.app = approvedApplication()
	store := newMemoryStore()
	svc := newCertService(t, repo, store, &stubAuditService{})

	ctx := context.Background()
	first, err := svc.GenerateCertificate(ctx, repo.app.ID)
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}

	repo.app.Certificate = first
	second, err := svc.GenerateCertificate(ctx, repo.app.ID)
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	if second.CertificateID != first.CertificateID || second.Hash != first.Hash {
		t.Fatalf("expected identical certificate, got %q vs %q", second.CertificateID, first.CertificateID)
	}
	if len(repo.certs) != 1 {
		t.Fatalf("expected a single certificate row, got %d", len(repo.certs))
	}
}

func TestGenerateCertificatePreconditions(t *testing.T) {
	repo := newStubCertRepo()
	svc := newCertService(t, repo, newMemoryStore(), &stubAuditService{})
	ctx := context.Background()

	_, err := svc.GenerateCertificate(ctx, 123)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	repo.app = approvedApplication()
	repo.app.Status = enums.ApplicationStatusPendingVerification
	_, err = svc.GenerateCertificate(ctx, repo.app.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGenerateCertificateIDCollisionExhaustsRetries(t *testing.T) {
	repo := newStubCertRepo()
	repo.app = approvedApplication()
	svc := newCertService(t, repo, newMemoryStore(), &stubAuditService{})

	// every candidate is taken
	svc.suffix = func() int { return 1234 }
	repo.takenIDs[newCertificateID("Lagos", time.Now().UTC(), 1234)] = true

	_, err := svc.GenerateCertificate(context.Background(), repo.app.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict after exhausted retries, got %v", err)
	}
	if repo.existCalls != 5 {
		t.Fatalf("expected 5 uniqueness checks, got %d", repo.existCalls)
	}
}

func TestVerifyCertificateTamperDetection(t *testing.T) {
	repo := newStubCertRepo()
	repo.app = approvedApplication()
	store := newMemoryStore()
	svc := newCertService(t, repo, store, &stubAuditService{})

	ctx := context.Background()
	cert, err := svc.GenerateCertificate(ctx, repo.app.ID)
	if err != nil {
		t.Fatalf("GenerateCertificate failed: %v", err)
	}
	cert.Application = repo.app

	// mutate the stored artifact
	store.files[cert.PDFPath] = append(store.files[cert.PDFPath], 0x00)

	result, err := svc.VerifyCertificate(ctx, cert.CertificateID)
	if err != nil {
		t.Fatalf("VerifyCertificate failed: %v", err)
	}
	if result.IsValid {
		t.Fatal("expected tampered certificate to be invalid")
	}
	if result.Message != "Certificate has been tampered with" {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestVerifyCertificateNotFound(t *testing.T) {
	svc := newCertService(t, newStubCertRepo(), newMemoryStore(), &stubAuditService{})

	result, err := svc.VerifyCertificate(context.Background(), "LAG-20250901-0000")
	if err != nil {
		t.Fatalf("VerifyCertificate failed: %v", err)
	}
	if result.IsValid {
		t.Fatal("expected invalid result")
	}
	if result.Message != "Certificate not found" {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestVerifyCertificateExpiredAtReadTime(t *testing.T) {
	repo := newStubCertRepo()
	repo.app = approvedApplication()
	store := newMemoryStore()
	svc := newCertService(t, repo, store, &stubAuditService{})

	ctx := context.Background()
	cert, err := svc.GenerateCertificate(ctx, repo.app.ID)
	if err != nil {
		t.Fatalf("GenerateCertificate failed: %v", err)
	}
	cert.Application = repo.app

	// the stored row still says Active; only the clock has moved on
	svc.now = func() time.Time { return cert.ExpiresAt.Add(time.Hour) }

	result, err := svc.VerifyCertificate(ctx, cert.CertificateID)
	if err != nil {
		t.Fatalf("VerifyCertificate failed: %v", err)
	}
	if result.IsValid {
		t.Fatal("expected expired certificate to be invalid")
	}
	if result.Status != "Expired" {
		t.Fatalf("status = %q, want Expired", result.Status)
	}
	if result.IsRevoked {
		t.Fatal("expiry is not revocation")
	}
	if result.Message != "Certificate is revoked or expired" {
		t.Fatalf("message = %q", result.Message)
	}
	if cert.Status != enums.CertificateStatusActive {
		t.Fatalf("stored status mutated to %s", cert.Status)
	}
}

func TestRevokeCertificate(t *testing.T) {
	repo := newStubCertRepo()
	repo.app = approvedApplication()
	store := newMemoryStore()
	auditor := &stubAuditService{}
	svc := newCertService(t, repo, store, auditor)

	ctx := context.Background()
	cert, err := svc.GenerateCertificate(ctx, repo.app.ID)
	if err != nil {
		t.Fatalf("GenerateCertificate failed: %v", err)
	}
	cert.Application = repo.app

	ok, err := svc.RevokeCertificate(ctx, cert.CertificateID, "issued in error", 99)
	if err != nil {
		t.Fatalf("RevokeCertificate failed: %v", err)
	}
	if !ok {
		t.Fatal("expected revocation to succeed")
	}
	if repo.revoked == nil || repo.revoked.Status != enums.CertificateStatusRevoked {
		t.Fatalf("revocation not persisted: %+v", repo.revoked)
	}
	if repo.revoked.RevokedBy == nil || *repo.revoked.RevokedBy != 99 {
		t.Fatal("revoked-by not recorded")
	}

	found := false
	for _, entry := range auditor.entries {
		if entry.Action == audit.ActionCertificateRevoked {
			found = true
		}
	}
	if !found {
		t.Fatal("expected CertificateRevoked audit entry")
	}

	// a revoked certificate verifies as invalid with the inactive message
	result, err := svc.VerifyCertificate(ctx, cert.CertificateID)
	if err != nil {
		t.Fatalf("VerifyCertificate failed: %v", err)
	}
	if result.IsValid {
		t.Fatal("expected revoked certificate to be invalid")
	}
	if !result.IsRevoked {
		t.Fatal("expected IsRevoked")
	}
	if result.Message != "Certificate is revoked or expired" {
		t.Fatalf("message = %q", result.Message)
	}
}

func TestRevokeNonexistentCertificate(t *testing.T) {
	repo := newStubCertRepo()
	svc := newCertService(t, repo, newMemoryStore(), &stubAuditService{})

	ok, err := svc.RevokeCertificate(context.Background(), "LAG-20250901-0000", "reason", 1)
	if err != nil {
		t.Fatalf("RevokeCertificate failed: %v", err)
	}
	if ok {
		t.Fatal("expected false for nonexistent certificate")
	}
	if repo.revoked != nil {
		t.Fatal("expected no writes")
	}
}

func TestGetCertificatePDF(t *testing.T) {
	repo := newStubCertRepo()
	repo.app = approvedApplication()
	store := newMemoryStore()
	svc := newCertService(t, repo, store, &stubAuditService{})

	ctx := context.Background()
	cert, err := svc.GenerateCertificate(ctx, repo.app.ID)
	if err != nil {
		t.Fatalf("GenerateCertificate failed: %v", err)
	}

	data, err := svc.GetCertificatePDF(ctx, cert.CertificateID)
	if err != nil {
		t.Fatalf("GetCertificatePDF failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected pdf bytes")
	}

	_, err = svc.GetCertificatePDF(ctx, "LAG-20250901-0000")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
