package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"aceofspace-go/models"
	"aceofspace-go/storage"
	"aceofspace-go/store"
	"aceofspace-go/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// ErrFileTooLarge is returned when a document file exceeds the intake limit.
var ErrFileTooLarge = &validationError{msg: "Document file exceeds the maximum allowed size."}

// Upload is one received document file. Content is read at most once.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// KYCService runs document intake and administrative review. Submissions
// move Pending -> Approved or Pending -> Rejected and never leave a
// terminal state.
type KYCService struct {
	submissions KYCRepository
	files       storage.Store
	maxBytes    int64
	now         Clock
	audit       auditor
	logger      *zap.Logger
}

func NewKYCService(submissions KYCRepository, files storage.Store, maxBytes int64, audit AuditRecorder, now Clock, log *zap.Logger) *KYCService {
	if now == nil {
		now = time.Now
	}
	log = log.Named("kyc")
	return &KYCService{
		submissions: submissions,
		files:       files,
		maxBytes:    maxBytes,
		now:         now,
		audit:       auditor{recorder: audit, logger: log},
		logger:      log,
	}
}

func (s *KYCService) fail(op string, err error) models.Result {
	res := failResult(err)
	if res.Code == string(KindStorage) {
		s.logger.Error(op+" failed", zap.Error(err))
	}
	return res
}

func parseDocumentType(raw string) (models.DocumentType, bool) {
	for _, t := range models.DocumentTypes {
		if string(t) == raw {
			return t, true
		}
	}
	return "", false
}

// Submit validates and stores a new submission for ownerID. Files already
// written are removed again if any later step fails.
func (s *KYCService) Submit(ctx context.Context, ownerID, documentType, documentNumber string, uploads []Upload) models.Result {
	if ownerID == "" {
		return s.fail("kyc submit", ErrUnauthorized)
	}

	documentType = strings.TrimSpace(documentType)
	documentNumber = strings.ToUpper(strings.TrimSpace(documentNumber))
	if documentType == "" || documentNumber == "" {
		return s.fail("kyc submit", invalid("Document type and document number are required."))
	}

	docType, ok := parseDocumentType(documentType)
	if !ok {
		return s.fail("kyc submit", invalid("Invalid document type."))
	}
	if !utils.ValidateDocumentNumber(string(docType), documentNumber) {
		return s.fail("kyc submit", invalid("Invalid %s number format.", docType))
	}

	active, err := s.submissions.HasActive(ctx, ownerID)
	if err != nil {
		return s.fail("kyc submit", err)
	}
	if active {
		return s.fail("kyc submit", ErrKYCConflict)
	}

	if err := s.checkUploads(docType, uploads); err != nil {
		return s.fail("kyc submit", err)
	}

	refs, err := s.store(ctx, ownerID, docType, uploads)
	if err != nil {
		return s.fail("kyc submit", err)
	}

	sub := &models.KYCSubmission{
		OwnerID:        ownerID,
		DocumentType:   docType,
		DocumentNumber: documentNumber,
		DocumentFiles:  refs,
		Status:         models.KYCPending,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		s.discard(refs)
		if errors.Is(err, store.ErrConflict) {
			return s.fail("kyc submit", ErrKYCConflict)
		}
		return s.fail("kyc submit", err)
	}

	s.logger.Info("kyc submitted", zap.String("id", sub.ID), zap.String("owner", ownerID), zap.String("type", string(docType)))
	s.audit.record(ctx, ownerID, "CREATE", "KYC", "KYC submitted: "+string(docType))
	return models.Success("KYC document uploaded successfully. Pending admin approval.", sub)
}

func (s *KYCService) checkUploads(docType models.DocumentType, uploads []Upload) error {
	want := docType.FileCount()
	if len(uploads) == 0 {
		return invalid("Please upload a document file.")
	}
	if len(uploads) != want {
		if want == 1 {
			return invalid("Upload exactly one file for %s.", docType)
		}
		return invalid("Upload exactly %d files (front and back) for %s.", want, docType)
	}
	for _, u := range uploads {
		ext := strings.ToLower(filepath.Ext(u.Filename))
		if !allowedExtensions[ext] {
			return invalid("Invalid file type. Only JPG, PNG, and PDF allowed.")
		}
		if u.Size > s.maxBytes {
			return ErrFileTooLarge
		}
	}
	return nil
}

func (s *KYCService) store(ctx context.Context, ownerID string, docType models.DocumentType, uploads []Upload) ([]string, error) {
	refs := make([]string, 0, len(uploads))
	for _, u := range uploads {
		ext := strings.ToLower(filepath.Ext(u.Filename))
		name := fmt.Sprintf("%s_%s_%s%s", docType, ownerID, uuid.NewString(), ext)

		ref, err := s.files.Save(ctx, name, &limitedReader{r: u.Content, remaining: s.maxBytes}, u.Size)
		if err != nil {
			s.discard(refs)
			if errors.Is(err, ErrFileTooLarge) {
				return nil, ErrFileTooLarge
			}
			return nil, fmt.Errorf("store document %s: %w", u.Filename, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// discard removes stored files; it runs with its own context so a
// cancelled request still cleans up.
func (s *KYCService) discard(refs []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, ref := range refs {
		if err := s.files.Remove(ctx, ref); err != nil {
			s.logger.Warn("orphaned kyc file", zap.String("ref", ref), zap.Error(err))
		}
	}
}

// Status reports the owner's latest submission.
func (s *KYCService) Status(ctx context.Context, ownerID string) models.Result {
	sub, err := s.submissions.Latest(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Success("KYC not submitted", models.KYCStatusResponse{Status: "not_submitted"})
	}
	if err != nil {
		return s.fail("kyc status", err)
	}
	return models.Success("KYC status fetched", models.KYCStatusResponse{
		Status:         string(sub.Status),
		DocumentType:   string(sub.DocumentType),
		SubmissionDate: &sub.CreatedAt,
		Remark:         sub.Remark,
		ReviewedAt:     sub.ReviewedAt,
	})
}

type PendingPage struct {
	Total int                    `json:"total"`
	Data  []models.KYCSubmission `json:"data"`
}

func (s *KYCService) ListPending(ctx context.Context) models.Result {
	subs, err := s.submissions.ListPending(ctx)
	if err != nil {
		return s.fail("list pending kyc", err)
	}
	return models.Success("Pending KYC submissions", PendingPage{Total: len(subs), Data: subs})
}

// Adjudicate sets a pending submission to approved or rejected. A
// submission that is already approved or rejected is not changed.
func (s *KYCService) Adjudicate(ctx context.Context, reviewerID, submissionID, status, remark string) models.Result {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" || strings.TrimSpace(status) == "" {
		return s.fail("kyc adjudicate", invalid("KYC ID and status are required."))
	}

	target := models.KYCStatus(strings.ToLower(strings.TrimSpace(status)))
	if !target.Terminal() {
		return s.fail("kyc adjudicate", ErrInvalidStatus)
	}

	var note *string
	if r := strings.TrimSpace(remark); r != "" {
		note = &r
	}

	err := s.submissions.Adjudicate(ctx, submissionID, target, note, reviewerID, s.now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.fail("kyc adjudicate", ErrKYCNotFound)
	case errors.Is(err, store.ErrStale):
		return s.fail("kyc adjudicate", fmt.Errorf("%w: %w", ErrAlreadyAdjudicated, ErrInvalidStatus))
	case err != nil:
		return s.fail("kyc adjudicate", err)
	}

	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return s.fail("kyc adjudicate", err)
	}

	s.logger.Info("kyc adjudicated", zap.String("id", sub.ID), zap.String("status", string(sub.Status)), zap.String("reviewer", reviewerID))
	s.audit.record(ctx, reviewerID, "UPDATE", "KYC", fmt.Sprintf("KYC %s %s", sub.ID, sub.Status))
	return models.Success(fmt.Sprintf("KYC %s successfully.", sub.Status), sub)
}

// limitedReader fails with ErrFileTooLarge once more than remaining bytes
// have been read.
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}
