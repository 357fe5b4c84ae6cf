package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/debug"
	"github.com/rhuss/paydesk/pkg/observability"
)

// FileName is the name under which the latest export is stored and
// offered for download.
const FileName = "records.xlsx"

// RecordLister provides the rows of an export.
type RecordLister interface {
	ListRecords(ctx context.Context) ([]*api.Record, error)
}

// Artifact describes a stored export.
type Artifact struct {
	Name      string
	Size      int64
	Rows      int
	CreatedAt time.Time
}

// Exporter renders the record collection and keeps the latest workbook in
// a sink. Concurrent Create calls are serialized.
type Exporter struct {
	records RecordLister
	sink    Sink
	now     func() time.Time

	mu     sync.Mutex
	latest *Artifact
}

// NewExporter creates an Exporter.
func NewExporter(records RecordLister, sink Sink) *Exporter {
	return &Exporter{records: records, sink: sink, now: time.Now}
}

// Create renders every record and replaces the stored export.
func (e *Exporter) Create(ctx context.Context) (*Artifact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	art, err := e.create(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.ExportsTotal.WithLabelValues(e.sink.Kind(), status).Inc()
	if err != nil {
		return nil, err
	}

	e.latest = art
	debug.Log("export", "export stored", "sink", e.sink.Kind(), "rows", art.Rows, "bytes", art.Size)
	return art, nil
}

func (e *Exporter) create(ctx context.Context) (*Artifact, error) {
	records, err := e.records.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: listing records: %w", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, records); err != nil {
		return nil, err
	}

	size := int64(buf.Len())
	if err := e.sink.Put(ctx, FileName, &buf, size); err != nil {
		return nil, err
	}

	return &Artifact{
		Name:      FileName,
		Size:      size,
		Rows:      len(records),
		CreatedAt: e.now().UTC(),
	}, nil
}

// Open returns the latest stored export. The Artifact is nil when the
// export was produced by an earlier process. ErrNotFound means nothing has
// been exported yet.
//
// The lock is held until the object is opened, so the returned Artifact
// always describes the bytes being read.
func (e *Exporter) Open(ctx context.Context) (io.ReadCloser, *Artifact, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	latest := e.latest
	rc, err := e.sink.Open(ctx, FileName)
	if err != nil {
		return nil, nil, err
	}
	if latest != nil {
		cp := *latest
		return rc, &cp, nil
	}
	return rc, nil, nil
}
