package sink

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/crawlkit/shopscraper/internal/models"
)

// Sink receives finished product records from the crawler.
type Sink interface {
	Emit(ctx context.Context, product *models.Product) error
	Close() error
}

// StdoutSink streams each product as one JSON line.
type StdoutSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewStdoutSink() *StdoutSink {
	return NewWriterSink(os.Stdout)
}

func NewWriterSink(w io.Writer) *StdoutSink {
	return &StdoutSink{enc: json.NewEncoder(w)}
}

func (s *StdoutSink) Emit(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(product)
}

func (s *StdoutSink) Close() error {
	return nil
}

// MultiSink fans one record out to several sinks. The first error wins
// but every sink still sees the record.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Emit(ctx context.Context, product *models.Product) error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Emit(ctx, product); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiSink) Close() error {
	var firstErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
