package mongodb

import (
	"contract-signing/internal/model"
	"errors"
	"time"
)

type storedContract struct {
	ID        int64     `bson:"_id"`
	OwnerID   int64     `bson:"owner_id"`
	Code      string    `bson:"contract_code"`
	Title     string    `bson:"contract_title"`
	Vendor    string    `bson:"vendor_name"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// storedFiles keeps public paths, the form clients already know.
type storedFiles struct {
	ContractID   int64  `bson:"_id"`
	UploadPath   string `bson:"upload_path,omitempty"`
	UploadSHA512 string `bson:"upload_sha512,omitempty"`
	SignedPath   string `bson:"signed_path,omitempty"`
	SignedSHA512 string `bson:"signed_sha512,omitempty"`
}

type storedApproval struct {
	ID           int64      `bson:"_id"`
	ContractID   int64      `bson:"contract_id"`
	ApproverID   int64      `bson:"approver_id"`
	Status       string     `bson:"status"`
	Notes        *string    `bson:"notes"`
	SignedPath   string     `bson:"signed_path,omitempty"`
	SignedSHA512 string     `bson:"signed_sha512,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	SignedAt     *time.Time `bson:"signed_at"`
}

type storedUser struct {
	ID       int64  `bson:"_id"`
	FullName string `bson:"full_name"`
	Email    string `bson:"email"`
	Role     string `bson:"role"`
}

type counter struct {
	Name string `bson:"_id"`
	Seq  int64  `bson:"seq"`
}

func fromContract(c model.Contract) storedContract {
	return storedContract{
		ID:        c.ID,
		OwnerID:   c.OwnerID,
		Code:      c.Code,
		Title:     c.Title,
		Vendor:    c.Vendor,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (s storedContract) toModel() model.Contract {
	return model.Contract{
		ID:        s.ID,
		OwnerID:   s.OwnerID,
		Code:      s.Code,
		Title:     s.Title,
		Vendor:    s.Vendor,
		Status:    model.NormalizeStatus(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func fromFiles(f model.DocumentVersionSet) storedFiles {
	return storedFiles{
		ContractID:   f.ContractID,
		UploadPath:   f.Original.Path(),
		UploadSHA512: f.OriginalHash,
		SignedPath:   f.Signed.Path(),
		SignedSHA512: f.SignedHash,
	}
}

func parseStoredPath(p string) (model.FileRef, error) {
	if p == "" {
		return model.FileRef{}, nil
	}
	ref, ok := model.ParseFileRef(p)
	if !ok {
		return model.FileRef{}, errors.New("unrecognised stored path: " + p)
	}
	return ref, nil
}

func (s storedFiles) toModel() (model.DocumentVersionSet, error) {
	original, err := parseStoredPath(s.UploadPath)
	if err != nil {
		return model.DocumentVersionSet{}, err
	}
	signed, err := parseStoredPath(s.SignedPath)
	if err != nil {
		return model.DocumentVersionSet{}, err
	}
	return model.DocumentVersionSet{
		ContractID:   s.ContractID,
		Original:     original,
		OriginalHash: s.UploadSHA512,
		Signed:       signed,
		SignedHash:   s.SignedSHA512,
	}, nil
}

func fromApproval(a model.Approval) storedApproval {
	return storedApproval{
		ID:           a.ID,
		ContractID:   a.ContractID,
		ApproverID:   a.ApproverID,
		Status:       string(a.Status),
		Notes:        a.Notes,
		SignedPath:   a.Signed.Path(),
		SignedSHA512: a.SignedHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		SignedAt:     a.SignedAt,
	}
}

func (s storedApproval) toModel() (model.Approval, error) {
	status := model.ApprovalStatus(s.Status)
	if !status.IsValid() {
		return model.Approval{}, errors.New("unknown approval status: " + s.Status)
	}
	signed, err := parseStoredPath(s.SignedPath)
	if err != nil {
		return model.Approval{}, err
	}
	return model.Approval{
		ID:         s.ID,
		ContractID: s.ContractID,
		ApproverID: s.ApproverID,
		Status:     status,
		Notes:      s.Notes,
		Signed:     signed,
		SignedHash: s.SignedSHA512,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		SignedAt:   s.SignedAt,
	}, nil
}

func (s storedUser) toModel() model.User {
	return model.User{ID: s.ID, FullName: s.FullName, Email: s.Email, Role: s.Role}
}
