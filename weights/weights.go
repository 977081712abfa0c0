// Package weights - named, versioned pretrained parameter sets. Each entry
// couples a downloadable checkpoint with the preprocessing recipe and the
// benchmark metadata it was published with. Model files register their
// entries at init, one variable per entry, so a build carries exactly the
// checkpoints it links.
package weights

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/nvr-ai/go-efficientnet/images"
)

// Meta is the published provenance and benchmark record of a checkpoint.
type Meta struct {
	// NumParams is the parameter count of the trained network.
	NumParams int64
	// Categories are the class labels, in output index order.
	Categories []string
	// Origin names the upstream training codebase the parameters came from.
	Origin string
	// Recipe links to the published training procedure.
	Recipe string
	// Acc1 is the ImageNet-1K top-1 accuracy, in percent.
	Acc1 float64
	// Acc5 is the ImageNet-1K top-5 accuracy, in percent.
	Acc5 float64
}

// Entry is one named, versioned pretrained weight set.
type Entry struct {
	// Name identifies the entry, e.g. "efficientnet-b0/imagenet1k-timm-v1".
	Name string
	// Arch is the architecture the parameters were trained for.
	Arch string
	// URL locates the checkpoint artifact.
	URL string
	// Checksum is the leading hex of the artifact's SHA-256, embedded in the
	// artifact stem. Downloads are verified against this prefix.
	Checksum string
	// Size is the artifact size in bytes, used to pre-size progress bars.
	Size int64
	// Default marks the entry returned when only an architecture is named.
	Default bool
	// Transform is the evaluation preprocessing the benchmark numbers assume.
	Transform images.Transform
	// Meta records provenance and accuracy.
	Meta Meta
}

// Verify checks the entry's parameters were trained for the given
// architecture. A nil entry verifies trivially so callers can pass through
// an optional entry unconditionally.
func (e *Entry) Verify(arch string) error {
	if e == nil {
		return nil
	}
	if e.Arch != arch {
		return fmt.Errorf("weights %q were trained for %q, not %q", e.Name, e.Arch, arch)
	}
	return nil
}

// Filename is the artifact's base name, used as the cache file name.
func (e *Entry) Filename() string {
	return path.Base(e.URL)
}

// NumClasses is the class count the checkpoint's classifier head produces.
func (e *Entry) NumClasses() int {
	return len(e.Meta.Categories)
}

func (e *Entry) String() string {
	return e.Name
}

var (
	mu       sync.RWMutex
	registry = make(map[string]*Entry)
)

// Register adds an entry to the registry. Names are unique; architectures
// may carry several versions but at most one default.
func Register(e *Entry) error {
	if e == nil {
		return fmt.Errorf("cannot register nil weight entry")
	}
	if e.Name == "" || e.Arch == "" || e.URL == "" {
		return fmt.Errorf("weight entry %q is missing name, arch or url", e.Name)
	}
	if e.Checksum == "" {
		return fmt.Errorf("weight entry %q has no checksum", e.Name)
	}
	if err := e.Transform.Validate(); err != nil {
		return fmt.Errorf("weight entry %q has invalid transform: %w", e.Name, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[e.Name]; exists {
		return fmt.Errorf("weight entry %q already registered", e.Name)
	}
	if e.Default {
		for _, other := range registry {
			if other.Arch == e.Arch && other.Default {
				return fmt.Errorf("architecture %q already has default weights %q", e.Arch, other.Name)
			}
		}
	}
	registry[e.Name] = e
	return nil
}

// MustRegister registers an entry and panics on conflict. Intended for the
// init functions of entry files, where a conflict is a programming error.
func MustRegister(e *Entry) {
	if err := Register(e); err != nil {
		panic(err)
	}
}

// Lookup resolves an entry by its full name.
func Lookup(name string) (*Entry, error) {
	mu.RLock()
	defer mu.RUnlock()
	if e, ok := registry[name]; ok {
		return e, nil
	}

	// Help the caller along when only the arch half matched.
	arch := name
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		arch = name[:idx]
	}
	var candidates []string
	for n, e := range registry {
		if e.Arch == arch {
			candidates = append(candidates, n)
		}
	}
	sort.Strings(candidates)
	if len(candidates) > 0 {
		return nil, fmt.Errorf("unknown weights %q, available for %s: %s",
			name, arch, strings.Join(candidates, ", "))
	}
	return nil, fmt.Errorf("unknown weights %q", name)
}

// ForArch lists the registered entries for an architecture, sorted by name.
func ForArch(arch string) []*Entry {
	mu.RLock()
	defer mu.RUnlock()
	var entries []*Entry
	for _, e := range registry {
		if e.Arch == arch {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Default returns the default entry for an architecture.
func Default(arch string) (*Entry, error) {
	mu.RLock()
	defer mu.RUnlock()
	for _, e := range registry {
		if e.Arch == arch && e.Default {
			return e, nil
		}
	}
	return nil, fmt.Errorf("no default weights registered for %q", arch)
}

// Names lists every registered entry name, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
