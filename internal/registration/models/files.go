package models

import (
	"encoding/json"
	"fmt"
)

// FileField names a document the terminal step requires.
type FileField string

const (
	FileJanAadhaar   FileField = "janAadhaar"
	FileProfilePhoto FileField = "profilePhoto"
)

// FileFields lists the required documents.
var FileFields = []FileField{FileJanAadhaar, FileProfilePhoto}

func (f FileField) Valid() bool {
	return f == FileJanAadhaar || f == FileProfilePhoto
}

// FileState tags a FileRef.
type FileState uint8

const (
	FileNone FileState = iota
	FilePending
	FileResolved
)

func (s FileState) String() string {
	switch s {
	case FilePending:
		return "pending"
	case FileResolved:
		return "resolved"
	}
	return "none"
}

// RawFile is an upload held in memory until it is forwarded to the upload
// service. It is never persisted.
type RawFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileRef is none, a pending raw file, or a resolved {url, name}.
type FileRef struct {
	state FileState
	raw   *RawFile
	url   string
	name  string
}

// PendingFile wraps a raw upload.
func PendingFile(raw RawFile) FileRef {
	return FileRef{state: FilePending, raw: &raw}
}

// ResolvedFile references an uploaded file.
func ResolvedFile(url, name string) FileRef {
	return FileRef{state: FileResolved, url: url, name: name}
}

func (f FileRef) State() FileState { return f.state }

// Present reports whether the ref is pending or resolved.
func (f FileRef) Present() bool { return f.state != FileNone }

// Pending returns the raw file when the ref is still pending.
func (f FileRef) Pending() (*RawFile, bool) {
	if f.state != FilePending {
		return nil, false
	}
	return f.raw, true
}

// Resolved returns the uploaded URL and display name.
func (f FileRef) Resolved() (url, name string, ok bool) {
	if f.state != FileResolved {
		return "", "", false
	}
	return f.url, f.name, true
}

// Persistable drops pending raw files, which cannot survive a reload.
func (f FileRef) Persistable() FileRef {
	if f.state == FilePending {
		return FileRef{}
	}
	return f
}

type resolvedJSON struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// MarshalJSON writes resolved refs as {url,name}; everything else is null.
func (f FileRef) MarshalJSON() ([]byte, error) {
	if f.state != FileResolved {
		return []byte("null"), nil
	}
	return json.Marshal(resolvedJSON{URL: f.url, Name: f.name})
}

func (f *FileRef) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = FileRef{}
		return nil
	}
	var r resolvedJSON
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("decode file ref: %w", err)
	}
	if r.URL == "" {
		*f = FileRef{}
		return nil
	}
	*f = ResolvedFile(r.URL, r.Name)
	return nil
}

// Files holds the two required documents.
type Files struct {
	JanAadhaar   FileRef `json:"janAadhaar"`
	ProfilePhoto FileRef `json:"profilePhoto"`
}

// Get returns the ref for field.
func (f *Files) Get(field FileField) FileRef {
	if p := f.ref(field); p != nil {
		return *p
	}
	return FileRef{}
}

// Attach stages a raw file. A resolved ref must be removed first: refs never
// move from resolved back to pending.
func (f *Files) Attach(field FileField, raw RawFile) error {
	p := f.ref(field)
	if p == nil {
		return fmt.Errorf("unknown file field %q", field)
	}
	if p.state == FileResolved {
		return ErrFileAlreadyResolved
	}
	*p = PendingFile(raw)
	return nil
}

// Resolve records the uploaded location of a pending file.
func (f *Files) Resolve(field FileField, url, name string) error {
	p := f.ref(field)
	if p == nil {
		return fmt.Errorf("unknown file field %q", field)
	}
	if p.state != FilePending {
		return fmt.Errorf("resolve %s: file is %s", field, p.state)
	}
	*p = ResolvedFile(url, name)
	return nil
}

// Remove clears a file so a different one can be attached.
func (f *Files) Remove(field FileField) {
	if p := f.ref(field); p != nil {
		*p = FileRef{}
	}
}

func (f *Files) ref(field FileField) *FileRef {
	switch field {
	case FileJanAadhaar:
		return &f.JanAadhaar
	case FileProfilePhoto:
		return &f.ProfilePhoto
	}
	return nil
}
