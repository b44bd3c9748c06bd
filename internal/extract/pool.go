package extract

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// parserPool recycles tree-sitter parser instances to avoid the per-file
// allocation overhead of sitter.NewParser() / parser.Close(). Each pipeline
// worker leases one parser per file.
//
// Concurrency: safe for use by multiple goroutines simultaneously.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool
}

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

func (p *parserPool) get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// The language survives a Reset, but not an external SetLanguage.
	sp.SetLanguage(p.lang)
	return sp
}

// put returns a parser for reuse. The parser is reset so no references to
// previous parse trees are retained. Callers must not use sp after put.
func (p *parserPool) put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}
