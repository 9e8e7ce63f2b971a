// Package stdout writes records as JSON lines, one payload per line.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/JakeFAU/flat-crawler/internal/crawler"
)

// Publisher encodes each record's payload onto a writer.
type Publisher struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// New returns a Publisher writing to w, or to os.Stdout when w is nil.
func New(w io.Writer) *Publisher {
	if w == nil {
		w = os.Stdout
	}
	return &Publisher{enc: json.NewEncoder(w)}
}

// Publish writes one line per record.
func (p *Publisher) Publish(ctx context.Context, records []crawler.Property) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.enc.Encode(crawler.NewPayload(record)); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	return nil
}
