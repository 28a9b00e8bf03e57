/*
Copyright © 2024 the EDS authors.
This file is part of EDS.

EDS is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

EDS is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with EDS.  If not, see <http://www.gnu.org/licenses/>.
*/


package edsutil

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/sirupsen/logrus"
)

type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	err   error
	dir   string
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a temporary file location
// is returned. The file will then be uploaded to blob storage when
// the uploadOutput method is run.
func (u *uploader) maybeUpload(path string) string {
	if u.err != nil {
		return ""
	}
	if !IsBlob(path) {
		return path
	}
	if u.dir == "" {
		u.dir, u.err = os.MkdirTemp("", "eds")
		if u.err != nil {
			return ""
		}
	}
	local := filepath.Join(u.dir, filepath.Base(path))
	u.files = append(u.files, [2]string{local, path})
	return local
}

// uploadOutput uploads the files registered with maybeUpload, retrying
// failed uploads with exponential backoff.
func (u *uploader) uploadOutput(ctx context.Context, log logrus.FieldLogger) error {
	if u.err != nil {
		return u.err
	}
	for _, files := range u.files {
		files := files
		err := backoff.RetryNotify(
			func() error { return upload(ctx, files[0], files[1]) },
			backoff.WithContext(backoff.NewExponentialBackOff(), ctx),
			func(err error, d time.Duration) {
				log.WithError(err).Warnf("upload of %s failed; retrying in %v", files[1], d)
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func upload(ctx context.Context, local, remote string) error {
	r, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("edsutil: opening file '%s' for upload: %s", local, err)
	}
	defer r.Close()
	u, err := url.Parse(remote)
	if err != nil {
		return fmt.Errorf("edsutil: parsing url '%s' for upload: %s", remote, err)
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return fmt.Errorf("edsutil: opening bucket to upload file '%s': %s", remote, err)
	}
	w, err := bucket.NewWriter(ctx, strings.TrimPrefix(u.Path, "/"), &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("edsutil: opening writer to upload file '%s': %s", remote, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("edsutil: uploading file '%s' to '%s': %s", local, remote, err)
	}
	return w.Close()
}
