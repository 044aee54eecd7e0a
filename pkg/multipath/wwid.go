// Package multipath implements the Multipath Oracle: the component that
// decides whether a candidate block device is merely a leg of a
// multipath aggregate and must therefore be hidden from the volume
// manager.
package multipath

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"
)

const minWWIDLen = 8 // spec boundary B1

// WWIDSet holds the two multipath blacklist sets parsed from
// multipath.conf-style files: wwid's under multipath management
// ("ignored" by the volume manager) and the exceptions the user
// explicitly re-admits.
type WWIDSet struct {
	Ignored           map[string]bool
	IgnoredExceptions map[string]bool
	Known             map[string]bool // contents of the known-wwids file
}

// NewWWIDSet returns an empty WWIDSet.
func NewWWIDSet() *WWIDSet {
	return &WWIDSet{
		Ignored:           map[string]bool{},
		IgnoredExceptions: map[string]bool{},
		Known:             map[string]bool{},
	}
}

// LoadConfigFiles parses the main multipath config file plus every
// non-hidden file in the drop-in directory, accumulating blacklist and
// blacklist_exceptions wwid entries. A file that cannot be opened
// contributes no evidence and is not an error (spec section 4.3,
// "Failure semantics").
func (s *WWIDSet) LoadConfigFiles(mainConfig, dropInDir string) {
	s.parseConfigFile(mainConfig)
	entries, err := os.ReadDir(dropInDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		s.parseConfigFile(filepath.Join(dropInDir, e.Name()))
	}
}

// parseConfigFile scans one multipath.conf-style file for
// "blacklist { ... }" and "blacklist_exceptions { ... }" blocks and
// collects their "wwid <value>" lines.
func (s *WWIDSet) parseConfigFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		klog.V(4).Infof("multipath: config file %s unreadable: %v", path, err)
		return
	}
	defer f.Close()

	const (
		sectionNone = iota
		sectionBlacklist
		sectionExceptions
	)
	section := sectionNone

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		word := firstToken(line)
		if word == "" {
			continue
		}

		if strings.Contains(line, "{") {
			switch {
			case strings.HasPrefix(word, "blacklist_exceptions"):
				section = sectionExceptions
			case strings.HasPrefix(word, "blacklist"):
				section = sectionBlacklist
			}
			continue
		}
		if strings.Contains(line, "}") {
			section = sectionNone
			continue
		}
		if section == sectionNone {
			continue
		}
		if word != "wwid" {
			continue
		}

		wwid, ok := parseWWIDValue(line)
		if !ok {
			continue
		}
		switch section {
		case sectionBlacklist:
			s.Ignored[wwid] = true
		case sectionExceptions:
			s.IgnoredExceptions[wwid] = true
		}
	}
}

func firstToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// parseWWIDValue extracts the wwid value from a "wwid <value>" or
// "wwid \"<value>\"" line: read up to the first whitespace, strip one
// pair of surrounding double quotes if present (spec boundary B2), strip
// a single leading '3' (the canonical NAA prefix), and discard values
// shorter than minWWIDLen (spec boundary B1).
func parseWWIDValue(line string) (string, bool) {
	idx := strings.Index(line, "wwid")
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimSpace(line[idx+len("wwid"):])
	end := strings.IndexFunc(rest, func(r rune) bool { return r == ' ' || r == '\t' })
	if end >= 0 {
		rest = rest[:end]
	}
	rest = unquote(rest)
	rest = strings.TrimPrefix(rest, "3")
	if len(rest) < minWWIDLen {
		return "", false
	}
	return rest, true
}

// unquote strips one matching pair of surrounding double quotes. A lone
// '"' is left as a literal character (spec boundary B2).
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// LoadKnownWWIDs parses the multipath known-WWIDs file: one
// slash-prefixed line per WWID, leading '3' and trailing '/' stripped.
func (s *WWIDSet) LoadKnownWWIDs(path string) {
	f, err := os.Open(path)
	if err != nil {
		klog.V(4).Infof("multipath: known-wwids file %s unreadable: %v", path, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "/") {
			continue
		}
		wwid := strings.TrimPrefix(line, "/")
		wwid = strings.TrimSuffix(wwid, "/")
		wwid = strings.TrimPrefix(wwid, "3")
		if len(wwid) < minWWIDLen {
			continue
		}
		s.Known[wwid] = true
	}
}

// Excluded reports whether wwid is in the effective exclusion set:
// Known \ (Ignored \ IgnoredExceptions). A blacklist entry only removes
// a wwid from the known-WWID table; it is never independent exclusion
// evidence on its own, so a wwid absent from Known can never be
// excluded no matter what the blacklist says.
func (s *WWIDSet) Excluded(wwid string) bool {
	effectiveIgnored := s.Ignored[wwid] && !s.IgnoredExceptions[wwid]
	return s.Known[wwid] && !effectiveIgnored
}

// StripTypestrPrefix removes a sysfs "<typestr>.<value>" prefix (e.g.
// "naa.", "eui.", "t10.") from a raw device/wwid reading before it is
// compared against the effective exclusion set.
//
// The mapping from sysfs typestr to the canonical "3<value>" multipath
// form is assumed, not validated against a real typestr table — this
// preserves the original tool's behaviour, which made the same
// assumption (spec section 9, Open Questions).
func StripTypestrPrefix(raw string) string {
	idx := strings.IndexByte(raw, '.')
	if idx < 0 {
		return raw
	}
	return raw[idx+1:]
}
