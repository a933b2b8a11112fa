package proxy

import (
	"errors"
	"fmt"
	iofs "io/fs"

	"tusky-uploader/internal/common"
	"tusky-uploader/internal/infra/fs"
)

// Rejection is a proxy line that cannot be turned into a transport.
type Rejection struct {
	Line   string
	Reason error
}

// LoadResult keeps every entry in file order (rotation is over Entries)
// and splits them into Valid and Rejected for reporting.
type LoadResult struct {
	Entries  []string
	Valid    []string
	Rejected []Rejection
}

// Load reads a proxy list. A missing file yields an empty result and no error.
func Load(path string) (*LoadResult, error) {
	lines, err := fs.ReadLines(path)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return &LoadResult{}, nil
		}
		return nil, fmt.Errorf("failed to load proxies: %w", err)
	}

	res := &LoadResult{Entries: lines}
	for _, line := range lines {
		if _, err := Parse(line); err != nil {
			res.Rejected = append(res.Rejected, Rejection{Line: line, Reason: fmt.Errorf("%w: %v", common.ErrInput, err)})
			continue
		}
		res.Valid = append(res.Valid, line)
	}
	return res, nil
}

// Pool hands out proxies round-robin. The counter advances once per call,
// also when the pool is empty, so assignment depends only on call order.
// Not safe for concurrent use; the runner owns it.
type Pool struct {
	entries []string
	counter int
}

func NewPool(entries []string) *Pool {
	return &Pool{entries: append([]string(nil), entries...)}
}

// Next returns the entry for the current counter value and its index,
// or (-1, "") when the pool is empty.
func (p *Pool) Next() (int, string) {
	n := p.counter
	p.counter++
	if len(p.entries) == 0 {
		return -1, ""
	}
	idx := n % len(p.entries)
	return idx, p.entries[idx]
}

// Counter is the number of assignments made so far.
func (p *Pool) Counter() int { return p.counter }
