// Package uploadsvc stores user-submitted files (item photos, handover
// proofs) on local disk and serves them back under /uploads/.
package uploadsvc

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/campusconnect/backend/core"
)

// URLPrefix is the public path uploaded files are served under.
const URLPrefix = "/uploads"

// Service persists uploaded files and returns the public reference to store
// on the owning record.
type Service interface {
	Save(filename string, src io.Reader) (string, error)
}

type localService struct {
	dir string
}

var _ Service = (*localService)(nil)

func NewLocalService(conf *core.Config) (Service, error) {
	if err := os.MkdirAll(conf.UploadsDir, 0o755); err != nil {
		return nil, pkgerrors.Wrap(err, "creating uploads dir")
	}
	return &localService{dir: conf.UploadsDir}, nil
}

// Save writes src to disk under a random name (the original extension is
// kept) and returns the public /uploads/... reference.
func (svc *localService) Save(filename string, src io.Reader) (string, error) {
	name := uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	dst, err := os.Create(filepath.Join(svc.dir, name))
	if err != nil {
		return "", pkgerrors.Wrap(err, "creating upload file")
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, src); err != nil {
		return "", pkgerrors.Wrap(err, "writing upload file")
	}
	return path.Join(URLPrefix, name), nil
}
