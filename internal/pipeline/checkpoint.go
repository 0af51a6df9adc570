package pipeline

import "github.com/gastos-dev/gastos/internal/model"

// Checkpoint maps Transaction.Key to a label assigned by an earlier run.
type Checkpoint map[string]string

// NewCheckpoint collects the labels of categorized rows. Unclassified rows
// are left out so a re-run retries them.
func NewCheckpoint(txns []model.Transaction) Checkpoint {
	cp := make(Checkpoint, len(txns))
	for _, t := range txns {
		if t.Categorized() {
			cp[t.Key()] = t.Category
		}
	}
	return cp
}

// Lookup returns the label recorded for txn, if any. Safe on a nil map.
func (cp Checkpoint) Lookup(txn model.Transaction) (string, bool) {
	label, ok := cp[txn.Key()]
	return label, ok
}
