package internal

import (
	"log"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN)`)

func ShowVersion() {
	log.Printf("Version: %s\n", versioninfo.Short())
}

// EnvironmentVars logs the PIXEL_* settings in effect, masking anything
// that looks like a credential.
func EnvironmentVars() {
	log.Println("Environment variables")
	for _, kv := range pixelEnviron(os.Environ()) {
		log.Printf("  %s: %s\n", kv[0], kv[1])
	}
}

func pixelEnviron(environ []string) [][2]string {
	entries := make([][2]string, 0, len(environ))
	for _, entry := range environ {
		key, value, _ := strings.Cut(entry, "=")
		if !strings.HasPrefix(key, "PIXEL_") {
			continue
		}
		if sensitiveRegex.MatchString(key) {
			value = "********"
		}
		entries = append(entries, [2]string{key, value})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i][0] < entries[j][0]
	})
	return entries
}
