package documents

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mediport/mediport/internal/auth"
	"github.com/mediport/mediport/internal/platform/httpx"
	"github.com/mediport/mediport/internal/platform/storage"
)

// RepositoryPort defines data access methods for documents.
type RepositoryPort interface {
	Insert(ctx context.Context, d Document) (*Document, error)
	FindByStorageKey(ctx context.Context, key string) (*Document, error)
	ListForUser(ctx context.Context, userID int64) ([]Document, error)
	Delete(ctx context.Context, id int64) error
}

// AccountDirectory resolves the target patient of a doctor upload.
type AccountDirectory interface {
	FindByID(ctx context.Context, id int64) (*auth.Account, error)
}

// Notifier tells a patient about files added to their record.
type Notifier interface {
	DocumentUploaded(ctx context.Context, patientID, doctorID int64, doctorName, filename string) error
}

// FileStore abstracts the on-disk upload store.
type FileStore interface {
	Save(category, filename string, r io.Reader) (string, error)
	Open(rel string) (io.ReadCloser, error)
	Remove(rel string) error
}

// Service handles document business logic.
type Service struct {
	repo     RepositoryPort
	accounts AccountDirectory
	store    FileStore
	guard    *auth.Guard
	notifier Notifier
	logger   *slog.Logger
}

// NewService builds a document Service.
func NewService(repo RepositoryPort, accounts AccountDirectory, store FileStore, guard *auth.Guard, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, accounts: accounts, store: store, guard: guard, notifier: notifier, logger: logger}
}

// Upload stores a file on the patient's record. Patients upload to their own
// record; doctors to a patient they have a confirmed appointment with, which
// also notifies the patient.
func (s *Service) Upload(ctx context.Context, principal *auth.Account, patientID int64, filename, contentType string, r io.Reader) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: file type %q is not allowed", httpx.ErrValidation, ext)
	}

	patient, err := s.accounts.FindByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionUploadDocument, patient); err != nil {
		return nil, err
	}

	key := uuid.NewString()
	stored := strconv.FormatInt(patientID, 10) + "_" + key + ext
	rel, err := s.store.Save(storage.CategoryDocuments, stored, r)
	if err != nil {
		return nil, fmt.Errorf("%w: store upload: %v", auth.ErrOperationFailed, err)
	}

	doc, err := s.repo.Insert(ctx, Document{
		UserID:      patientID,
		UploaderID:  principal.ID,
		Name:        filepath.Base(filename),
		FilePath:    rel,
		ContentType: contentType,
		StorageKey:  key,
	})
	if err != nil {
		if removeErr := s.store.Remove(rel); removeErr != nil {
			s.logger.Warn("remove orphaned upload", slog.Any("error", removeErr))
		}
		return nil, err
	}

	if principal.Role == auth.RoleDoctor && principal.ID != patientID {
		if err := s.notifier.DocumentUploaded(ctx, patientID, principal.ID, principal.FullName(), doc.Name); err != nil {
			s.logger.Warn("upload notification", slog.String("document", key), slog.Any("error", err))
		}
	}
	return doc, nil
}

// ListOwn returns the caller's documents.
func (s *Service) ListOwn(ctx context.Context, principal *auth.Account) ([]Document, error) {
	return s.repo.ListForUser(ctx, principal.ID)
}

// ListForPatient returns a patient's documents to a linked doctor.
func (s *Service) ListForPatient(ctx context.Context, principal *auth.Account, patientID int64) ([]Document, error) {
	patient, err := s.accounts.FindByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionUploadDocument, patient); err != nil {
		return nil, err
	}
	return s.repo.ListForUser(ctx, patientID)
}

// Download opens a document for the owner or a linked doctor. The caller
// must close the reader.
func (s *Service) Download(ctx context.Context, principal *auth.Account, key string) (*Document, io.ReadCloser, error) {
	doc, err := s.repo.FindByStorageKey(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	if err := s.guard.Authorize(ctx, principal, auth.ActionAccessDocument, doc); err != nil {
		return nil, nil, err
	}
	f, err := s.store.Open(doc.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open document: %v", auth.ErrOperationFailed, err)
	}
	return doc, f, nil
}

// Delete removes one of the caller's own documents. The database row is
// authoritative; file removal is best effort.
func (s *Service) Delete(ctx context.Context, principal *auth.Account, key string) error {
	doc, err := s.repo.FindByStorageKey(ctx, key)
	if err != nil {
		return err
	}
	if !auth.Owns(principal, doc) {
		return fmt.Errorf("%w: delete-document", auth.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.store.Remove(doc.FilePath); err != nil {
		s.logger.Warn("remove document file", slog.String("document", key), slog.Any("error", err))
	}
	return nil
}
