package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cleared-dev/ptbn2ofx/internal/model"
)

// namespace scopes transaction IDs so they never collide with other UUIDv5 producers.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/cleared-dev/ptbn2ofx/fitid"))

// TransactionID returns a deterministic ID derived from the transaction's
// posting date, amount, payee and memo. Re-exporting the same statement
// yields the same IDs, which lets importers skip lines they have already seen.
func TransactionID(txn model.Transaction) string {
	key := strings.Join([]string{
		txn.Date.Format("2006-01-02"),
		txn.Amount.StringFixed(2),
		txn.Payee,
		txn.Memo,
	}, "\x1f")
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// Set hands out unique IDs within one statement.
type Set struct {
	seen map[string]int
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]int)}
}

// Claim returns base if it has not been claimed yet. Repeated claims of the
// same base get a "-N" suffix: "abc", "abc-1", "abc-2".
func (s *Set) Claim(base string) string {
	n, dup := s.seen[base]
	s.seen[base] = n + 1
	if !dup {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}
