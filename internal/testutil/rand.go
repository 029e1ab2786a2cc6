package testutil

import (
	"bytes"
	"io"
)

// SeqReader returns a reader yielding n bytes counting 0, 1, 2, ...
// and wrapping at limit.
//
// Handed to the ledger as its randomness source, it makes issued codes
// and tokens fully predictable: the same operations always produce the
// same credential values. Wrapping below the uniform-draw cutoff means
// no byte is ever discarded, so draws stay aligned across runs.
func SeqReader(limit byte, n int) io.Reader {
	seq := make([]byte, n)
	for i := range seq {
		seq[i] = byte(i % int(limit))
	}
	return bytes.NewReader(seq)
}
