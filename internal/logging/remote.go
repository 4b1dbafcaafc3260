package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultRemoteEndpoint is the ingest API base URL used when none is configured.
	DefaultRemoteEndpoint = "https://api.axiom.co"
	// DefaultDataset is used when no dataset name is configured.
	DefaultDataset = "itemstore-dev"

	defaultFlushInterval = 2 * time.Second
	defaultMaxBatchSize  = 100
	queueSize            = 1024
)

// RemoteConfig configures the remote ingest destination.
type RemoteConfig struct {
	Endpoint string
	Dataset  string
	Token    string

	// FlushInterval and MaxBatchSize bound how long a record waits before
	// upload. Zero values take the defaults.
	FlushInterval time.Duration
	MaxBatchSize  int
}

// RemoteSink batches NDJSON records and ships them to the ingest endpoint.
// Write never blocks: records go through a bounded queue and are dropped
// when the queue is full. Upload failures are logged and swallowed.
type RemoteSink struct {
	cfg    RemoteConfig
	client *http.Client

	queue chan []byte
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewRemoteSink starts the upload loop for the given config.
func NewRemoteSink(cfg RemoteConfig) *RemoteSink {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultRemoteEndpoint
	}
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaultFlushInterval
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = defaultMaxBatchSize
	}
	s := &RemoteSink{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		queue:  make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Write enqueues one record. The slice is copied because zerolog reuses
// its buffers after Write returns.
func (s *RemoteSink) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case s.queue <- cp:
	default:
		// Queue full: drop rather than stall the request that logged.
	}
	return len(p), nil
}

// Close flushes any pending records and stops the upload loop.
func (s *RemoteSink) Close() error {
	close(s.done)
	s.wg.Wait()
	return nil
}

func (s *RemoteSink) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.FlushInterval)
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
			if len(batch) >= s.cfg.MaxBatchSize {
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

func (s *RemoteSink) upload(batch [][]byte) {
	body := bytes.Join(batch, nil)
	url := fmt.Sprintf("%s/v1/datasets/%s/ingest", s.cfg.Endpoint, s.cfg.Dataset)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("[remote-sink] build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/x-ndjson")
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("[remote-sink] upload %d records: %v", len(batch), err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[remote-sink] upload %d records: status %d", len(batch), resp.StatusCode)
	}
}
