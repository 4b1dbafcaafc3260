package logging

import (
	"bytes"
	"compress/gzip"
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopstack/itemstore/internal/storage"
)

const (
	archiveFlushInterval = 30 * time.Second
	archiveMaxBatchSize  = 500
)

// ObjectPutter is the slice of the object store the archive sink needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// ArchiveSink batches records and uploads each batch as one gzipped NDJSON
// object under a date-partitioned key. Same contract as the remote sink:
// Write never blocks, upload failures are logged and swallowed.
type ArchiveSink struct {
	store       ObjectPutter
	environment string

	queue chan []byte
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewArchiveSink starts the upload loop over the given store.
func NewArchiveSink(store ObjectPutter, environment string) *ArchiveSink {
	s := &ArchiveSink{
		store:       store,
		environment: environment,
		queue:       make(chan []byte, queueSize),
		done:        make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *ArchiveSink) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case s.queue <- cp:
	default:
	}
	return len(p), nil
}

// Close flushes pending records and stops the upload loop.
func (s *ArchiveSink) Close() error {
	close(s.done)
	s.wg.Wait()
	return nil
}

func (s *ArchiveSink) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(archiveFlushInterval)
	defer ticker.Stop()

	var batch [][]byte
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.upload(batch)
		batch = nil
	}

	for {
		select {
		case rec := <-s.queue:
			batch = append(batch, rec)
			if len(batch) >= archiveMaxBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.done:
			for {
				select {
				case rec := <-s.queue:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *ArchiveSink) upload(batch [][]byte) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	for _, rec := range batch {
		_, _ = zw.Write(rec)
	}
	if err := zw.Close(); err != nil {
		log.Printf("[archive-sink] gzip %d records: %v", len(batch), err)
		return
	}

	key := storage.KeyForBatch(s.environment, uuid.NewString(), ".ndjson.gz")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.store.PutObject(ctx, key, buf.Bytes(), "application/gzip"); err != nil {
		log.Printf("[archive-sink] upload %d records to %s: %v", len(batch), key, err)
	}
}
