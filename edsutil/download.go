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
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or blob storage location.
// If it is, it downloads the file and returns the path to the
// downloaded file. Otherwise, or if the download fails, it returns
// the given path and logs the error.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) string {
	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path
	}
	var (
		local string
		err   error
	)
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		local, err = downloadHTTP(ctx, path)
	case IsBlob(path):
		local, err = downloadBlob(ctx, path)
	default:
		return path
	}
	if err != nil {
		log.WithError(err).WithField("path", path).Error("download failed")
		return path
	}
	log.WithFields(logrus.Fields{"path": path, "local": local}).Debug("downloaded file")
	return local
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("edsutil: downloading %s: %s", path, resp.Status)
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return saveTemp(filepath.Base(u.Path), resp.Body)
}

// saveTemp copies r to a file called name in a new temporary directory.
func saveTemp(name string, r io.Reader) (string, error) {
	dir, err := os.MkdirTemp("", "eds")
	if err != nil {
		return "", fmt.Errorf("edsutil: failed creating temporary download directory: %v", err)
	}
	fname := filepath.Join(dir, name)
	w, err := os.Create(fname)
	if err != nil {
		return "", fmt.Errorf("edsutil: failed creating file for download: %v", err)
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return "", err
	}
	return fname, w.Close()
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// Even if name contains subdirectories, only the base directory name will be
// used when opening the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("edsutil.OpenBucket: %v", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Hostname())
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("edsutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	bucket, err := OpenBucket(ctx, u.Scheme+"://"+u.Host)
	if err != nil {
		return "", err
	}
	r, err := bucket.NewReader(ctx, strings.TrimPrefix(u.Path, "/"))
	if err != nil {
		return "", err
	}
	defer r.Close()
	return saveTemp(filepath.Base(u.Path), r)
}
