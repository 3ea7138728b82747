package models

import (
	"strings"
	"time"
)

// ResponseState is the follow-up status of a letter. It is either
// Unresponded or Responded.
type ResponseState interface {
	responseState()
}

// Unresponded means neither follow-up text nor a follow-up file exists.
type Unresponded struct{}

// Responded holds at least one of Text or Attachment.
type Responded struct {
	Text       *string
	Attachment *Attachment
}

func (Unresponded) responseState() {}
func (Responded) responseState() {}

// Attachment is a stored file with the name it was uploaded under.
type Attachment struct {
	Path       string
	Filename   string
	UploadedAt time.Time
}

// ResponseState derives the follow-up status from the stored columns.
// Outgoing letters count as responded even without follow-up data.
func (d *Document) ResponseState() ResponseState {
	var state Responded
	if d.ResponseKeterangan != nil && strings.TrimSpace(*d.ResponseKeterangan) != "" {
		text := *d.ResponseKeterangan
		state.Text = &text
	}
	if d.ResponseStoragePath != nil && *d.ResponseStoragePath != "" {
		att := Attachment{Path: *d.ResponseStoragePath, Filename: deref(d.ResponseOriginalFilename)}
		if d.ResponseUploadTimestamp != nil {
			att.UploadedAt = *d.ResponseUploadTimestamp
		}
		state.Attachment = &att
	}
	if state.Text == nil && state.Attachment == nil && d.TipeSurat != TipeSuratKeluar {
		return Unresponded{}
	}
	return state
}

// WorkflowPatch describes a disposition and follow-up mutation. A nil text
// leaves the column untouched while an empty one clears it. A new attachment
// wins over the matching delete flag.
type WorkflowPatch struct {
	IsiDisposisi                *string
	ResponseKeterangan          *string
	DispositionAttachment       *Attachment
	DeleteDispositionAttachment bool
	ResponseAttachment          *Attachment
	DeleteResponseAttachment    bool
}

// IsEmpty reports whether the patch changes nothing.
func (p WorkflowPatch) IsEmpty() bool {
	return p.IsiDisposisi == nil && p.ResponseKeterangan == nil &&
		p.DispositionAttachment == nil && !p.DeleteDispositionAttachment &&
		p.ResponseAttachment == nil && !p.DeleteResponseAttachment
}

// ApplyWorkflowPatch returns the document after patch together with the
// stored files the patch made obsolete. has_responded is recomputed from the
// result. doc is not modified.
func ApplyWorkflowPatch(doc Document, patch WorkflowPatch) (Document, []string) {
	next := doc
	var obsolete []string

	if patch.IsiDisposisi != nil {
		next.IsiDisposisi = normalizeText(*patch.IsiDisposisi)
	}
	if patch.ResponseKeterangan != nil {
		next.ResponseKeterangan = normalizeText(*patch.ResponseKeterangan)
	}

	switch {
	case patch.DispositionAttachment != nil:
		obsolete = appendObsolete(obsolete, doc.DispositionAttachmentPath, patch.DispositionAttachment.Path)
		path, name := patch.DispositionAttachment.Path, patch.DispositionAttachment.Filename
		next.DispositionAttachmentPath = &path
		next.DispositionAttachmentFilename = &name
	case patch.DeleteDispositionAttachment:
		obsolete = appendObsolete(obsolete, doc.DispositionAttachmentPath, "")
		next.DispositionAttachmentPath = nil
		next.DispositionAttachmentFilename = nil
	}

	switch {
	case patch.ResponseAttachment != nil:
		obsolete = appendObsolete(obsolete, doc.ResponseStoragePath, patch.ResponseAttachment.Path)
		path, name, at := patch.ResponseAttachment.Path, patch.ResponseAttachment.Filename, patch.ResponseAttachment.UploadedAt
		next.ResponseStoragePath = &path
		next.ResponseOriginalFilename = &name
		next.ResponseUploadTimestamp = &at
	case patch.DeleteResponseAttachment:
		obsolete = appendObsolete(obsolete, doc.ResponseStoragePath, "")
		next.ResponseStoragePath = nil
		next.ResponseOriginalFilename = nil
		next.ResponseUploadTimestamp = nil
	}

	_, unresponded := next.ResponseState().(Unresponded)
	next.HasResponded = !unresponded

	return next, obsolete
}

func normalizeText(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func appendObsolete(list []string, old *string, replacement string) []string {
	if old == nil || *old == "" || *old == replacement {
		return list
	}
	return append(list, *old)
}
