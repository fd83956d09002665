package parse

import (
	"strconv"
	"strings"
	"time"
)

// GPGKey is one key accumulated from a `gpg --with-colons` listing: a pub or
// sec record followed by its fpr and uid records.
type GPGKey struct {
	ID          string
	Fingerprint string
	UserIDs     []string
	IsSecret    bool
	CreatedAt   time.Time
}

// ParseColonKeys parses `gpg --with-colons --list-keys` (or --list-secret-keys)
// output. The listing is stateful: a pub/sec record opens a key, following
// fpr/uid records attach to it, and the next pub/sec (or end of input)
// closes it. Subkey fingerprints are ignored; only the first fpr after the
// pub record is the primary fingerprint.
func ParseColonKeys(raw string) []GPGKey {
	keys := []GPGKey{}
	var current *GPGKey
	inSubkey := false

	flush := func() {
		if current != nil {
			keys = append(keys, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Split(line, ":")
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "pub", "sec":
			flush()
			current = &GPGKey{IsSecret: fields[0] == "sec"}
			inSubkey = false
			if len(fields) > 4 {
				current.ID = fields[4]
			}
			if len(fields) > 5 {
				if epoch, err := strconv.ParseInt(fields[5], 10, 64); err == nil {
					current.CreatedAt = time.Unix(epoch, 0).UTC()
				}
			}
		case "sub", "ssb":
			inSubkey = true
		case "fpr":
			if current != nil && !inSubkey && current.Fingerprint == "" && len(fields) > 9 {
				current.Fingerprint = fields[9]
			}
		case "uid":
			if current != nil && len(fields) > 9 && fields[9] != "" {
				current.UserIDs = append(current.UserIDs, fields[9])
			}
		}
	}
	// The last key has no following pub record to close it.
	flush()
	return keys
}
