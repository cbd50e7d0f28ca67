//go:build !linux && !freebsd && !darwin

package dirty

import "context"

// flushRanges falls back to a full write-back of the target.
func (t *Tracker) flushRanges(ctx context.Context, _ []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.t.Sync()
}
