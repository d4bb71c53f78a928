package lang

import (
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	mu       sync.RWMutex
	catalogs map[string]map[string]string
)

// Load reads the message catalog. The file holds one block per locale
// ("en", "ru"); every value must be a string.
func Load(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[Lang] Could not read %s: %v (using empty catalogs)", path, err)
		mu.Lock()
		catalogs = make(map[string]map[string]string)
		mu.Unlock()
		return
	}

	var raw map[string]map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		log.Fatalf("[Lang] Failed to parse %s: %v", path, err)
	}

	cats := make(map[string]map[string]string, len(raw))
	for locale, block := range raw {
		m := make(map[string]string, len(block))
		for k, v := range block {
			if s, ok := v.(string); ok {
				m[k] = s
			}
		}
		cats[locale] = m
	}

	mu.Lock()
	catalogs = cats
	mu.Unlock()

	for locale, m := range cats {
		log.Printf("[Lang] Loaded locale %q (%d keys)", locale, len(m))
	}
}

// T looks a key up in the locale's catalog, falling back to "en", and
// substitutes {name} placeholders from the name/value pairs.
func T(locale, key string, pairs ...string) string {
	mu.RLock()
	s, ok := catalogs[locale][key]
	if !ok && locale != "en" {
		s, ok = catalogs["en"][key]
	}
	mu.RUnlock()

	if !ok {
		return "{" + key + "}"
	}

	for j := 0; j+1 < len(pairs); j += 2 {
		s = strings.ReplaceAll(s, "{"+pairs[j]+"}", pairs[j+1])
	}
	return s
}
