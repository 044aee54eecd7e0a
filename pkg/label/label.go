// Package label implements the Label Reader external collaborator
// (spec.md §1): given a device, read the first 4 KiB and extract a
// PVID. The on-disk volume-group metadata format itself is explicitly
// out of scope (spec.md §1 Non-goals); this package only recognises the
// label header signature and UUID field, both of which are necessary to
// answer "what PVID does this device carry", and goes no further.
package label

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openlvm/devid/pkg/utils"
	"k8s.io/klog/v2"
)

// retryConfig covers the window right after a device rename where the
// new node exists in sysfs but udev hasn't finished settling /dev yet:
// the first open can fail with ENOENT even though the device is about
// to appear. Two attempts, a short fixed gap; this is local I/O, not a
// network call, so there's no case for real exponential backoff here.
func retryConfig(path string) utils.RetryConfig {
	return utils.RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    15 * time.Millisecond,
		MaxBackoff:        15 * time.Millisecond,
		BackoffMultiplier: 1,
		RetryableFunc:     utils.IsRetryableIOError,
		OperationName:     "label read " + path,
	}
}

const (
	scanSize       = 4096
	sectorSize     = 512
	sectorsScanned = scanSize / sectorSize

	labelSignature = "LABELONE"
	labelTypeLVM2  = "LVM2 001"

	// Offsets within a 512-byte label sector, per the on-disk label
	// header: 8-byte signature, 8-byte sector number, 4-byte checksum,
	// 4-byte data offset, 8-byte label type, then the PV UUID encoded as
	// 32 ASCII hex characters with no separators.
	offSignature = 0
	offType      = 24
	offPVUUID    = 32
	pvuuidLen    = 32
)

// ErrNoLabel describes the case where none of the first few sectors carry
// a recognised label signature. ReadPVID does not return it: it reports
// that case as ok=false.
var ErrNoLabel = fmt.Errorf("label: no LVM2 label found in the first %d bytes", scanSize)

// Reader reads device labels. The zero value reads real device nodes;
// tests substitute Open to read from a fixture file instead.
type Reader struct {
	// Open opens path for reading. Defaults to os.Open; overridable so
	// tests can point at a regular file standing in for a block device.
	Open func(path string) (*os.File, error)
}

// NewReader returns a Reader backed by the real filesystem.
func NewReader() *Reader {
	return &Reader{Open: os.Open}
}

// ReadPVID reads the first 4 KiB of the device node at path and returns
// its PVID. ok is false if no label signature was found or the device
// could not be read; this is never treated as fatal by callers (spec.md
// §7, "absent-data... never fatal").
func (r *Reader) ReadPVID(path string) (pvid string, ok bool) {
	open := r.Open
	if open == nil {
		open = os.Open
	}

	var buf []byte
	err := utils.WithRetryNoResult(context.Background(), retryConfig(path), func() error {
		f, openErr := open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()

		b := make([]byte, scanSize)
		n, readErr := f.Read(b)
		if readErr != nil && n == 0 {
			return readErr
		}
		buf = b[:n]
		return nil
	})
	if err != nil {
		klog.V(4).Infof("label: read %s: %v", path, err)
		return "", false
	}

	for i := 0; i < sectorsScanned; i++ {
		start := i * sectorSize
		end := start + sectorSize
		if end > len(buf) {
			break
		}
		sector := buf[start:end]
		if !bytes.HasPrefix(sector[offSignature:], []byte(labelSignature)) {
			continue
		}
		if offType+len(labelTypeLVM2) > len(sector) || string(sector[offType:offType+len(labelTypeLVM2)]) != labelTypeLVM2 {
			continue
		}
		if offPVUUID+pvuuidLen > len(sector) {
			continue
		}
		pvid = strings.TrimSpace(string(sector[offPVUUID : offPVUUID+pvuuidLen]))
		if pvid == "" {
			continue
		}
		return pvid, true
	}
	return "", false
}
