package units

import (
	"strings"

	dockerunits "github.com/docker/go-units"
	"github.com/pkg/errors"
)

// FormatBytes renders a size with binary prefixes, e.g. 1536 -> "1.5KiB".
// Negative sizes are shown as "-".
func FormatBytes(n int64) string {
	if n < 0 {
		return "-"
	}
	return dockerunits.BytesSize(float64(n))
}

// FormatQuota renders a limit where 0 means no limit.
func FormatQuota(n int64) string {
	if n == 0 {
		return "unlimited"
	}
	return FormatBytes(n)
}

// ParseBytes reads a human size such as "10GiB", "512m" or "1024". Unit
// letters are always binary, so "1g" and "1GiB" are the same value.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := dockerunits.RAMInBytes(s)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid size %q", s)
	}
	if n < 0 {
		return 0, errors.Errorf("invalid size %q", s)
	}
	return n, nil
}
