package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRemover struct {
	mu       sync.Mutex
	deleted  []string
	failures map[string]int
}

func (r *recordingRemover) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures[name] > 0 {
		r.failures[name]--
		return errors.New("busy")
	}
	r.deleted = append(r.deleted, name)
	return nil
}

func (r *recordingRemover) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.deleted...)
}

func TestFileJanitorRemovesInlineWhenNotStarted(t *testing.T) {
	remover := &recordingRemover{}
	janitor := NewFileJanitor(remover, nil, nil, FileJanitorConfig{})

	janitor.Remove("documents/a.pdf", "", "responses/b.png")
	assert.Equal(t, []string{"documents/a.pdf", "responses/b.png"}, remover.snapshot())
}

func TestFileJanitorRetriesInBackground(t *testing.T) {
	remover := &recordingRemover{failures: map[string]int{"documents/a.pdf": 1}}
	janitor := NewFileJanitor(remover, NewMetricsService(), nil, FileJanitorConfig{Workers: 1, Retries: 3, RetryDelay: 10 * time.Millisecond})
	janitor.Start(context.Background())
	defer janitor.Stop()

	janitor.Remove("documents/a.pdf")

	require.Eventually(t, func() bool {
		return len(remover.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"documents/a.pdf"}, remover.snapshot())
}

func TestFileJanitorStopFlushesQueue(t *testing.T) {
	remover := &recordingRemover{}
	janitor := NewFileJanitor(remover, nil, nil, FileJanitorConfig{Workers: 1})
	janitor.Start(context.Background())
	janitor.Remove("documents/a.pdf", "documents/b.pdf")
	janitor.Stop()

	assert.ElementsMatch(t, []string{"documents/a.pdf", "documents/b.pdf"}, remover.snapshot())

	janitor.Remove("documents/c.pdf")
	assert.Contains(t, remover.snapshot(), "documents/c.pdf")
}
