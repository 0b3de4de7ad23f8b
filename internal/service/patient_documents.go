package service

import (
	"context"
	"io"
	"strings"

	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
	"go.uber.org/zap"
)

// AddDocument uploads the file first and only then appends the document
// entry, so the patient never references an asset that failed to store.
// documentId is allocated within this patient's own series.
func (s *PatientService) AddDocument(ctx context.Context, patientID, title, filename string, file io.Reader, caller AuditEntry) (*patient.Document, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &ValidationError{Fields: []string{"documentTitle is required"}}
	}

	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	ref, err := s.store.Upload(ctx, filename, file)
	if err != nil {
		s.metrics.StorageOpsTotal.WithLabelValues("upload", "error").Inc()
		return nil, &DependencyError{Dependency: "storage", Err: err}
	}
	s.metrics.StorageOpsTotal.WithLabelValues("upload", "ok").Inc()

	doc := patient.Document{
		DocumentID:    p.NextDocumentID(),
		DocumentTitle: strings.TrimSpace(title),
		PublicID:      ref.PublicID,
		DocumentFile:  ref.SecureURL,
	}
	p.PatientDocuments = append(p.PatientDocuments, doc)
	p.UpdatedAt = timeNow()

	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists()

	caller.Action, caller.ResourceType, caller.ResourceID = "create", "document", doc.DocumentID
	s.auditSvc.LogAsync(ctx, caller)

	return &doc, nil
}

// UpdateDocument replaces a document's title and, when a file is given,
// its stored asset: upload new, swap the reference, then delete the old
// file. A failed upload leaves the previous asset in place.
func (s *PatientService) UpdateDocument(ctx context.Context, patientID, documentID, title, filename string, file io.Reader, caller AuditEntry) (*patient.Document, error) {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	doc := p.FindDocument(documentID)
	if doc == nil {
		return nil, patient.ErrDocumentNotFound
	}

	if title != "" {
		doc.DocumentTitle = title
	}

	var oldPublicID string
	if file != nil {
		ref, err := s.store.Upload(ctx, filename, file)
		if err != nil {
			s.metrics.StorageOpsTotal.WithLabelValues("upload", "error").Inc()
			return nil, &DependencyError{Dependency: "storage", Err: err}
		}
		s.metrics.StorageOpsTotal.WithLabelValues("upload", "ok").Inc()
		oldPublicID = doc.PublicID
		doc.PublicID = ref.PublicID
		doc.DocumentFile = ref.SecureURL
	}

	p.UpdatedAt = timeNow()
	if err := s.repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateLists()

	s.deleteStoredAsset(ctx, oldPublicID)

	caller.Action, caller.ResourceType, caller.ResourceID = "update", "document", documentID
	s.auditSvc.LogAsync(ctx, caller)

	updated := *doc
	return &updated, nil
}

// DeleteDocument removes the entry from the patient, then deletes the
// stored file.
func (s *PatientService) DeleteDocument(ctx context.Context, patientID, documentID string, caller AuditEntry) error {
	p, err := s.repo.GetByPatientID(ctx, patientID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range p.PatientDocuments {
		if p.PatientDocuments[i].DocumentID == documentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return patient.ErrDocumentNotFound
	}

	publicID := p.PatientDocuments[idx].PublicID
	p.PatientDocuments = append(p.PatientDocuments[:idx], p.PatientDocuments[idx+1:]...)
	p.UpdatedAt = timeNow()

	if err := s.repo.Replace(ctx, p); err != nil {
		return err
	}
	s.invalidateLists()

	s.deleteStoredAsset(ctx, publicID)

	caller.Action, caller.ResourceType, caller.ResourceID = "delete", "document", documentID
	s.auditSvc.LogAsync(ctx, caller)

	return nil
}

// deleteStoredAsset best-effort deletes an external file; failures are
// logged, not surfaced, because the owning record is already consistent.
func (s *PatientService) deleteStoredAsset(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.store.Delete(ctx, publicID); err != nil {
		s.metrics.StorageOpsTotal.WithLabelValues("delete", "error").Inc()
		s.log.Warn("failed to delete stored asset",
			zap.String("public_id", publicID),
			zap.Error(err),
		)
		return
	}
	s.metrics.StorageOpsTotal.WithLabelValues("delete", "ok").Inc()
}
