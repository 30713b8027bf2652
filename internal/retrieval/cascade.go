package retrieval

import (
	"scirag/internal/metadata"
	"scirag/internal/vectordb"
)

// Candidate is one rung of the metadata filter ladder. A nil Clause is
// the unconstrained sentinel that terminates every cascade.
type Candidate struct {
	Clause *vectordb.Clause
}

// BuildCandidates turns an extracted metadata record into the ordered
// filter cascade: one single-attribute candidate per non-empty attribute
// (membership for list values, equality for scalars), followed by the
// unconstrained sentinel. Attributes are visited in the domain's
// filter-key order; no attribute is prioritized over another — the only
// ordering guarantee is that constrained attempts precede the fallback.
func BuildCandidates(rec metadata.Record, filterKeys []string) []Candidate {
	var out []Candidate
	for _, key := range filterKeys {
		val, ok := rec[key]
		if !ok {
			continue
		}
		switch v := val.(type) {
		case []string:
			if len(v) == 0 {
				continue
			}
			c := vectordb.In(key, v...)
			out = append(out, Candidate{Clause: &c})
		case string:
			if v == "" {
				continue
			}
			c := vectordb.Eq(key, v)
			out = append(out, Candidate{Clause: &c})
		}
	}
	// The sentinel guarantees the cascade never ends empty.
	out = append(out, Candidate{})
	return out
}
