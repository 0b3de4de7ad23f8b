package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therebootai/democlinicsoftwarebackend/internal/domain/patient"
)

func TestAddDocumentAllocatesPerPatientSeries(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{
		PatientID:        "patientId0001",
		PatientDocuments: []patient.Document{{DocumentID: "DOC0001"}},
	})
	// Another patient already holding DOC0002 must not affect this series.
	f.repo.add(&patient.Patient{
		PatientID:        "patientId0002",
		PatientDocuments: []patient.Document{{DocumentID: "DOC0002"}},
	})

	doc, err := f.svc.AddDocument(context.Background(), "patientId0001", "OPG Scan", "opg.png",
		strings.NewReader("png-bytes"), AuditEntry{})
	require.NoError(t, err)

	assert.Equal(t, "DOC0002", doc.DocumentID)
	assert.Equal(t, "test/opg.png", doc.PublicID)
	assert.Equal(t, "https://media.test/opg.png", doc.DocumentFile)
}

func TestAddDocumentRequiresTitle(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{PatientID: "patientId0001"})

	_, err := f.svc.AddDocument(context.Background(), "patientId0001", "  ", "scan.png",
		strings.NewReader("png"), AuditEntry{})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, f.store.uploads)
}

func TestAddDocumentUploadFailureLeavesPatientUntouched(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{PatientID: "patientId0001"})
	f.store.fail = true

	_, err := f.svc.AddDocument(context.Background(), "patientId0001", "Report", "report.pdf",
		strings.NewReader("%PDF"), AuditEntry{})

	var derr *DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "storage", derr.Dependency)

	p, getErr := f.repo.GetByPatientID(context.Background(), "patientId0001")
	require.NoError(t, getErr)
	assert.Empty(t, p.PatientDocuments)
}

func TestUpdateDocumentSwapsFileThenDeletesOld(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{
		PatientID: "patientId0001",
		PatientDocuments: []patient.Document{{
			DocumentID:    "DOC0001",
			DocumentTitle: "Old title",
			PublicID:      "test/old.png",
			DocumentFile:  "https://media.test/old.png",
		}},
	})

	doc, err := f.svc.UpdateDocument(context.Background(), "patientId0001", "DOC0001",
		"New title", "new.png", strings.NewReader("png"), AuditEntry{})
	require.NoError(t, err)

	assert.Equal(t, "New title", doc.DocumentTitle)
	assert.Equal(t, "test/new.png", doc.PublicID)
	assert.Equal(t, []string{"test/old.png"}, f.store.deleted)
}

func TestUpdateDocumentTitleOnlyKeepsFile(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{
		PatientID: "patientId0001",
		PatientDocuments: []patient.Document{{
			DocumentID: "DOC0001",
			PublicID:   "test/keep.png",
		}},
	})

	doc, err := f.svc.UpdateDocument(context.Background(), "patientId0001", "DOC0001",
		"Renamed", "", nil, AuditEntry{})
	require.NoError(t, err)

	assert.Equal(t, "test/keep.png", doc.PublicID)
	assert.Empty(t, f.store.deleted)
}

func TestDeleteDocumentRemovesEntryAndFile(t *testing.T) {
	f := newPatientServiceFixture()
	f.repo.add(&patient.Patient{
		PatientID: "patientId0001",
		PatientDocuments: []patient.Document{{
			DocumentID: "DOC0001",
			PublicID:   "test/doc.pdf",
		}},
	})

	require.NoError(t, f.svc.DeleteDocument(context.Background(), "patientId0001", "DOC0001", AuditEntry{}))

	p, err := f.repo.GetByPatientID(context.Background(), "patientId0001")
	require.NoError(t, err)
	assert.Empty(t, p.PatientDocuments)
	assert.Equal(t, []string{"test/doc.pdf"}, f.store.deleted)
}
