package event

import (
	"encoding/json"
	"os"
	"sync"

	"k8s.io/klog/v2"
)

// fileRecord is one line of a FileEventProvider's backing JSON document.
type fileRecord struct {
	Major              int    `json:"major,omitempty"`
	Minor              int    `json:"minor,omitempty"`
	MultipathComponent bool   `json:"multipath_component,omitempty"`
	PVID               string `json:"pvid,omitempty"`
	Appeared           bool   `json:"appeared,omitempty"`
}

// FileEventProvider is a JSON-file-backed test double for Provider: it
// lets tests and development setups inject event evidence without
// standing up a real event bus. The file is read once at construction
// time; production deployments implement Provider against their own
// event source instead.
type FileEventProvider struct {
	mu              sync.RWMutex
	multipathByPair map[[2]int]bool
	appearedByPVID  map[string]bool
}

// LoadFileEventProvider reads path as a JSON array of fileRecord and
// builds lookup tables from it. A missing or malformed file yields an
// empty provider rather than an error, matching the "no evidence" default
// behaviour of NoOp.
func LoadFileEventProvider(path string) *FileEventProvider {
	p := &FileEventProvider{
		multipathByPair: map[[2]int]bool{},
		appearedByPVID:  map[string]bool{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		klog.V(4).Infof("event: %s unreadable, starting with no evidence: %v", path, err)
		return p
	}
	var records []fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		klog.Warningf("event: %s is not valid JSON, starting with no evidence: %v", path, err)
		return p
	}
	for _, r := range records {
		if r.MultipathComponent {
			p.multipathByPair[[2]int{r.Major, r.Minor}] = true
		}
		if r.Appeared && r.PVID != "" {
			p.appearedByPVID[r.PVID] = true
		}
	}
	return p
}

func (p *FileEventProvider) IsMultipathComponent(major, minor int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.multipathByPair[[2]int{major, minor}]
}

func (p *FileEventProvider) DeviceAppeared(pvid string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.appearedByPVID[pvid]
}
