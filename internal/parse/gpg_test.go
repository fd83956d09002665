package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const gpgPublicListing = `tru::1:1716000000:0:3:1:5
pub:u:4096:1:AAAA1111BBBB2222:1700000000:::u:::scESC::::::23::0:
fpr:::::::::1234567890ABCDEF1234567890ABCDEF12345678:
uid:u::::1700000000::HASH::Ada Lovelace <ada@example.com>::::::::::0:
sub:u:4096:1:CCCC3333DDDD4444:1700000000::::::e::::::23:
fpr:::::::::FEDCBA0987654321FEDCBA0987654321FEDCBA09:
pub:u:255:22:EEEE5555FFFF6666:1710000000:::u:::scESC::::::23::0:
fpr:::::::::ABCDEFABCDEFABCDEFABCDEFABCDEFABCDEFABCD:
uid:u::::1710000000::HASH::Grace Hopper <grace@example.com>::::::::::0:
uid:u::::1710000000::HASH::Grace Hopper (work) <grace@navy.mil>::::::::::0:
`

func TestParseColonKeys(t *testing.T) {
	t.Run("accumulates keys with uids and primary fingerprint", func(t *testing.T) {
		keys := ParseColonKeys(gpgPublicListing)
		require.Len(t, keys, 2)

		require.Equal(t, "AAAA1111BBBB2222", keys[0].ID)
		require.Equal(t, "1234567890ABCDEF1234567890ABCDEF12345678", keys[0].Fingerprint)
		require.Equal(t, []string{"Ada Lovelace <ada@example.com>"}, keys[0].UserIDs)
		require.False(t, keys[0].IsSecret)
		require.Equal(t, time.Unix(1700000000, 0).UTC(), keys[0].CreatedAt)

		require.Equal(t, "EEEE5555FFFF6666", keys[1].ID)
		require.Len(t, keys[1].UserIDs, 2)
	})

	t.Run("subkey fingerprint does not overwrite primary", func(t *testing.T) {
		keys := ParseColonKeys(gpgPublicListing)
		require.Equal(t, "1234567890ABCDEF1234567890ABCDEF12345678", keys[0].Fingerprint)
		require.NotEqual(t, "FEDCBA0987654321FEDCBA0987654321FEDCBA09", keys[0].Fingerprint)
	})

	t.Run("last key is flushed at end of input", func(t *testing.T) {
		keys := ParseColonKeys("pub:u:255:22:SINGLE:1710000000:::u:::scESC::::\nuid:u::::::HASH::Solo <solo@example.com>::::\n")
		require.Len(t, keys, 1)
		require.Equal(t, "SINGLE", keys[0].ID)
	})

	t.Run("two consecutive pub records both flush", func(t *testing.T) {
		raw := "pub:u:255:22:FIRST:1700000000:::u:::scESC::::\npub:u:255:22:SECOND:1700000001:::u:::scESC::::\n"
		keys := ParseColonKeys(raw)
		require.Len(t, keys, 2)
		require.Equal(t, "FIRST", keys[0].ID)
		require.Equal(t, "SECOND", keys[1].ID)
	})

	t.Run("secret listing sets IsSecret", func(t *testing.T) {
		raw := "sec:u:4096:1:DEAD:1700000000:::u:::scESC::::\nfpr:::::::::DEADBEEF:\n"
		keys := ParseColonKeys(raw)
		require.Len(t, keys, 1)
		require.True(t, keys[0].IsSecret)
		require.Equal(t, "DEADBEEF", keys[0].Fingerprint)
	})

	t.Run("empty input yields no keys", func(t *testing.T) {
		require.Empty(t, ParseColonKeys(""))
	})
}
