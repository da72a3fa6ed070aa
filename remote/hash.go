package remote

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// flagsHash fingerprints a flag set so an unchanged refresh can skip the reload.
// Each line is "<len(id)>:<id>|<0 or 1>", so ids cannot run into each other;
// lines are sorted so map order does not matter.
func flagsHash(flags map[string]bool) string {
	lines := make([]string, 0, len(flags))
	for id, on := range flags {
		state := "0"
		if on {
			state = "1"
		}
		lines = append(lines, strconv.Itoa(len(id))+":"+id+"|"+state)
	}
	sort.Strings(lines)
	h := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(h[:])
}
