package entity

import (
	"strings"
	"time"
)

// SkillKind discriminates the two skill variants. Custom skills are uploaded
// from a local bundle directory; prebuilt skills reference the vendor's
// hosted catalog and have no local storage.
type SkillKind string

const (
	SkillKindCustom   SkillKind = "custom"
	SkillKindPrebuilt SkillKind = "prebuilt"
)

// UploadStatus tracks the skill upload lifecycle.
type UploadStatus string

const (
	UploadStatusPending  UploadStatus = "pending"
	UploadStatusUploaded UploadStatus = "uploaded"
	UploadStatusFailed   UploadStatus = "failed"
)

// Skill is a named capability bundle attachable to agents. Immutable once
// uploaded; only the upload lifecycle fields change.
type Skill struct {
	id          string
	name        string
	description string
	kind        SkillKind
	vendorID    string
	sourcePath  string // custom skills only
	status      UploadStatus
	uploadError string
	createdAt   time.Time
}

// NewCustomSkill creates a user-uploaded skill in pending state. The vendor
// id is assigned by MarkUploaded once the vendor accepts the bundle.
func NewCustomSkill(id, name, description, sourcePath string) (*Skill, error) {
	if id == "" {
		return nil, ErrInvalidSkillID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidSkillName
	}
	return &Skill{
		id:          id,
		name:        name,
		description: description,
		kind:        SkillKindCustom,
		sourcePath:  sourcePath,
		status:      UploadStatusPending,
		createdAt:   time.Now().UTC(),
	}, nil
}

// NewPrebuiltSkill registers a vendor-hosted skill. Prebuilt skills need no
// upload and are immediately usable.
func NewPrebuiltSkill(id, name, description, vendorID string) (*Skill, error) {
	if id == "" {
		return nil, ErrInvalidSkillID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidSkillName
	}
	return &Skill{
		id:          id,
		name:        name,
		description: description,
		kind:        SkillKindPrebuilt,
		vendorID:    vendorID,
		status:      UploadStatusUploaded,
		createdAt:   time.Now().UTC(),
	}, nil
}

// ReconstructSkill rebuilds a skill from the persistence layer.
func ReconstructSkill(id, name, description string, kind SkillKind, vendorID, sourcePath string, status UploadStatus, uploadError string, createdAt time.Time) *Skill {
	return &Skill{
		id:          id,
		name:        name,
		description: description,
		kind:        kind,
		vendorID:    vendorID,
		sourcePath:  sourcePath,
		status:      status,
		uploadError: uploadError,
		createdAt:   createdAt,
	}
}

func (s *Skill) ID() string           { return s.id }
func (s *Skill) Name() string         { return s.name }
func (s *Skill) Description() string  { return s.description }
func (s *Skill) Kind() SkillKind      { return s.kind }
func (s *Skill) VendorID() string     { return s.vendorID }
func (s *Skill) SourcePath() string   { return s.sourcePath }
func (s *Skill) Status() UploadStatus { return s.status }
func (s *Skill) UploadError() string  { return s.uploadError }
func (s *Skill) CreatedAt() time.Time { return s.createdAt }

// IsReady reports whether the skill can be attached to executions.
func (s *Skill) IsReady() bool {
	return s.status == UploadStatusUploaded
}

// MarkUploaded records a successful vendor upload.
func (s *Skill) MarkUploaded(vendorID string) {
	s.vendorID = vendorID
	s.status = UploadStatusUploaded
	s.uploadError = ""
}

// MarkFailed records a failed vendor upload with its cause.
func (s *Skill) MarkFailed(reason string) {
	s.status = UploadStatusFailed
	s.uploadError = reason
}

// Ref returns the reference shape forwarded to the model API. Only the
// vendor id and kind cross that boundary, never the storage path.
func (s *Skill) Ref() SkillRef {
	return SkillRef{VendorID: s.vendorID, Kind: s.kind}
}

// SkillRef is the minimal skill reference attached to a model invocation.
type SkillRef struct {
	VendorID string
	Kind     SkillKind
}
