package extract

import (
	"os"
	"runtime"
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"constbox/internal/errors"
	"constbox/internal/observability"
)

// Pipeline fans file paths out across a fixed worker pool and fans per-file
// results back into a single collector. Both handoffs use unbuffered
// channels: a send blocks until a worker or the collector is ready, which is
// the only backpressure mechanism.
//
// A Pipeline is cheap to construct and scoped to a single Run; independent
// scans (including tests) each build their own.
type Pipeline struct {
	workers int
	deny    DenySet
	pool    *parserPool
}

func NewPipeline(deny DenySet) *Pipeline {
	return newPipeline(deny, runtime.NumCPU())
}

func newPipeline(deny DenySet, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		workers: workers,
		deny:    deny,
		pool:    newParserPool(sitter.NewLanguage(tree_sitter_ruby.Language())),
	}
}

// Run extracts every path into one merged corpus. Any I/O error, parse
// failure or structural assumption violation is fatal: the first error
// aborts the whole run and no partial corpus is returned.
func (p *Pipeline) Run(paths []string) (*Corpus, error) {
	work := make(chan string)
	results := make(chan FileResult)
	done := make(chan struct{})

	var (
		firstErr error
		failOnce sync.Once
	)
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			close(done)
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				case path, ok := <-work:
					if !ok {
						return
					}
					fr, err := p.extractFile(path)
					if err != nil {
						fail(err)
						return
					}
					results <- fr
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, path := range paths {
			select {
			case work <- path:
			case <-done:
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single collector: the corpus has exactly one writer until Run
	// returns, after which it is read-only.
	corpus := &Corpus{}
	for fr := range results {
		corpus.add(fr)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	observability.CorpusDefinitions.Set(float64(len(corpus.Definitions)))
	observability.CorpusReferences.Set(float64(len(corpus.References)))
	return corpus, nil
}

func (p *Pipeline) extractFile(path string) (FileResult, error) {
	start := time.Now()
	content, err := os.ReadFile(path)
	if err != nil {
		return FileResult{}, errors.AddContext(
			errors.Wrap(err, errors.CodeIO, "reading source file"),
			errors.CtxPath, path)
	}

	sp := p.pool.get()
	defer p.pool.put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return FileResult{}, errors.AddContext(
			errors.New(errors.CodeParse, "parser returned no tree"),
			errors.CtxPath, path)
	}
	defer tree.Close()

	v := &visitor{source: content, file: path, deny: p.deny}
	if err := v.walk(tree.RootNode()); err != nil {
		return FileResult{}, err
	}

	observability.FilesParsedTotal.Inc()
	observability.ParseDuration.Observe(time.Since(start).Seconds())
	return v.out, nil
}
