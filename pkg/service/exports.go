package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/export"
	"github.com/rhuss/paydesk/pkg/transport"
)

var errNoExporter = errors.New("export is not configured")

// CreateExport renders all records into the export sink.
func (s *Service) CreateExport(ctx context.Context) (*transport.Export, error) {
	if s.exporter == nil {
		return nil, errNoExporter
	}
	art, err := s.exporter.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating export: %w", err)
	}
	return toTransport(art), nil
}

// OpenExport returns the latest export.
func (s *Service) OpenExport(ctx context.Context) (io.ReadCloser, *transport.Export, error) {
	if s.exporter == nil {
		return nil, nil, errNoExporter
	}
	rc, art, err := s.exporter.Open(ctx)
	if errors.Is(err, export.ErrNotFound) {
		return nil, nil, api.NewNotFoundError(msgNoExport)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening export: %w", err)
	}
	if art == nil {
		return rc, &transport.Export{Name: export.FileName}, nil
	}
	return rc, toTransport(art), nil
}

func toTransport(art *export.Artifact) *transport.Export {
	return &transport.Export{
		Name:      art.Name,
		Size:      art.Size,
		Rows:      art.Rows,
		CreatedAt: art.CreatedAt,
	}
}
