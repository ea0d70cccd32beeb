// Package documents stores medical files attached to a patient's profile,
// uploaded by the patient or by a doctor treating them.
package documents

import "time"

// MaxDocumentBytes caps a single upload.
const MaxDocumentBytes = 10 << 20

// allowedExtensions is the upload whitelist, keyed by lowercase extension.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Document is a stored medical file. StorageKey is the public identifier
// used in URLs; the numeric id never leaves the database layer.
type Document struct {
	ID          int64
	UserID      int64
	UploaderID  int64
	Name        string
	FilePath    string
	ContentType string
	StorageKey  string
	CreatedAt   time.Time
}

// OwnedBy identifies the patient the document belongs to.
func (d *Document) OwnedBy() int64 { return d.UserID }
