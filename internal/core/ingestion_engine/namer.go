package ingestion_engine

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/markdave123-py/docvault/internal/core"
)

const (
	fallbackStem  = "file"
	fallbackOwner = "anonymous"
	maxStemLen    = 64
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeRun     = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// StorageName derives the blob key for an accepted upload:
//
//	<stem>-<owner>-<unix nanos>-<32 random bits as hex><kind extension>
//
// The client's extension is discarded; the kind decides it. Only
// [A-Za-z0-9_-] survive in stem and owner, so the result never carries a path
// separator or a traversal sequence.
func StorageName(originalName, ownerID string, kind core.Kind) string {
	stem := sanitize(stripExt(baseName(originalName)))
	if len(stem) > maxStemLen {
		stem = stem[:maxStemLen]
	}
	if stem == "" {
		stem = fallbackStem
	}
	owner := sanitize(ownerID)
	if owner == "" {
		owner = fallbackOwner
	}
	return fmt.Sprintf("%s-%s-%d-%08x%s", stem, owner, time.Now().UnixNano(), randomUint32(), kind.Extension())
}

func baseName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	b := path.Base(name)
	if b == "/" || b == "." {
		return ""
	}
	return b
}

func stripExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func sanitize(s string) string {
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-")
	s = unsafeRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_-")
}

func randomUint32() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint32(b[:])
}
