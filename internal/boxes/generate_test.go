package boxes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constbox/internal/extract"
)

func TestGenerateMinimalBox(t *testing.T) {
	corpus := &extract.Corpus{
		Definitions: []extract.Definition{
			def("Billing", "lib/billing/billing.rb"),
			def("Billing::Client", "lib/billing/client.rb"),
			def("Store", "lib/store/store.rb"),
		},
		References: []extract.Reference{
			// Outside dependencies, one referenced twice.
			ref("Billing", "Store", "lib/billing/billing.rb"),
			ref("Billing::Client", "Store", "lib/billing/client.rb"),
			ref("Billing", "Audit", "lib/billing/billing.rb"),
			// Incoming references to the box's internals.
			ref("Store", "Billing::Client", "lib/store/store.rb"),
			ref("Store", "Billing", "lib/store/store.rb"),
		},
	}

	box, err := Generate("lib/billing/box.yml", corpus, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Audit", "Store"}, patternStrings(box.Imports))
	assert.Equal(t, []string{"Billing", "Billing::Client"}, patternStrings(box.Exports))
}

// A generated box eliminates every violation against the corpus it was
// derived from.
func TestGeneratedBoxIsClean(t *testing.T) {
	corpus := &extract.Corpus{
		Definitions: []extract.Definition{
			def("Billing", "lib/billing/billing.rb"),
			def("Store", "lib/store/store.rb"),
		},
		References: []extract.Reference{
			ref("Billing", "Store", "lib/billing/billing.rb"),
			ref("Store", "Billing", "lib/store/store.rb"),
		},
	}

	box, err := Generate("lib/billing/box.yml", corpus, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, box.Imports)
	assert.NotEmpty(t, box.Exports)

	violations := Enforce("lib/billing/box.yml", box, corpus, nil)
	assert.Empty(t, violations)
}

func TestGenerateEmptyCorpus(t *testing.T) {
	box, err := Generate("lib/billing/box.yml", &extract.Corpus{}, nil)
	require.NoError(t, err)
	assert.Empty(t, box.Imports)
	assert.Empty(t, box.Exports)
}
