// Package blob selects the document store holding source workbooks and
// archived run reports.
package blob

import (
	"breederbook/internal/blob/core"
	"breederbook/internal/config"
	fsstore "breederbook/internal/infra/blob/fs"
	memstore "breederbook/internal/infra/blob/memory"
	s3store "breederbook/internal/infra/blob/s3"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

type (
	Store      = core.Store
	Info       = core.Info
	PutOptions = core.PutOptions
	Driver     = core.Driver
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory

	ContentTypeXLSX = core.ContentTypeXLSX
	ContentTypeJSON = core.ContentTypeJSON
)

var (
	ErrNotFound = core.ErrNotFound
	ErrExists   = core.ErrExists
)

// Open builds the Store named by cfg.Driver (default fs).
func Open(ctx context.Context, cfg config.Blob) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return fsstore.New(cfg.Root)
	case DriverS3:
		return s3store.New(ctx, s3store.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
	case DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// PutJSON stores v as an indented JSON document under key.
func PutJSON(ctx context.Context, s Store, key string, v any) (Info, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Info{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, bytes.NewReader(b), PutOptions{ContentType: core.ContentTypeJSON})
}

// ReadAll loads the document at key fully into memory.
func ReadAll(ctx context.Context, s Store, key string) ([]byte, error) {
	_, rc, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}
