package extract

// Separator joins namespace segments in qualified names.
const Separator = "::"

// Definition is a namespace-introducing declaration site: a module, a class,
// or a constant assignment. Reopening a namespace yields one Definition per
// site; namespaces are not globally unique.
type Definition struct {
	Namespace string
	File      string
	Line      int
	// Extent is the number of source lines the declaration spans.
	Extent int
}

// Reference is a use of a namespace from some enclosing scope. Namespace is
// the dotted token exactly as written at the use site; no alias or scope
// resolution is performed.
type Reference struct {
	Namespace       string
	CallerNamespace string
	File            string
	Line            int
}

// FileResult aggregates everything extracted from a single source file.
type FileResult struct {
	Definitions []Definition
	References  []Reference
}

// Corpus is the merged output of one extraction run. It has exactly one
// writer (the pipeline collector) while being built and must be treated as
// read-only afterwards; enforcement passes may then share it across
// goroutines without further synchronization.
type Corpus struct {
	Definitions []Definition
	References  []Reference
}

func (c *Corpus) add(fr FileResult) {
	c.Definitions = append(c.Definitions, fr.Definitions...)
	c.References = append(c.References, fr.References...)
}
