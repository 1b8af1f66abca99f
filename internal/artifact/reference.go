package artifact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AliasLatest selects the highest version of an artifact.
const AliasLatest = "latest"

// namePattern restricts artifact names to characters that are safe as
// path segments and object key components.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Selector is a parsed artifact reference.
type Selector struct {
	// Name is the artifact name.
	Name string

	// Version is the requested version. Ignored when Latest is true.
	Version int

	// Latest selects the highest version.
	Latest bool
}

// String returns the canonical form of the selector.
func (s Selector) String() string {
	if s.Latest {
		return s.Name + ":" + AliasLatest
	}
	return fmt.Sprintf("%s:v%d", s.Name, s.Version)
}

// ParseReference parses "name", "name:latest" or "name:vN". Named aliases
// other than latest are not supported.
func ParseReference(ref string) (Selector, error) {
	name, alias, found := strings.Cut(ref, ":")
	if err := ValidateName(name); err != nil {
		return Selector{}, err
	}
	if !found || alias == AliasLatest {
		return Selector{Name: name, Latest: true}, nil
	}

	digits, ok := strings.CutPrefix(alias, "v")
	if !ok || digits == "" {
		return Selector{}, fmt.Errorf("%w: unsupported alias %q in %q, want latest or vN", ErrInvalidReference, alias, ref)
	}
	v, err := strconv.Atoi(digits)
	if err != nil || v < 0 {
		return Selector{}, fmt.Errorf("%w: bad version %q in %q", ErrInvalidReference, alias, ref)
	}

	return Selector{Name: name, Version: v}, nil
}

// ValidateName checks that name can be used as an artifact name.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: name %q", ErrInvalidReference, name)
	}
	return nil
}

// Reference identifies one stored artifact version.
type Reference struct {
	// Name is the artifact name.
	Name string `json:"name"`

	// Version is the version number assigned by the store.
	Version int `json:"version"`

	// Digest is the hex BLAKE2b-256 digest of the artifact content.
	Digest string `json:"digest"`
}

// String returns "name:vN".
func (r Reference) String() string {
	return fmt.Sprintf("%s:v%d", r.Name, r.Version)
}

// Metadata describes an artifact being published.
type Metadata struct {
	// Name is the artifact name.
	Name string `json:"name"`

	// Type is the artifact category, e.g. "raw_data" or "clean_sample".
	Type string `json:"type"`

	// Description is free text shown in listings.
	Description string `json:"description"`

	// Extra holds free-form key/value metadata recorded with the version.
	Extra map[string]any `json:"metadata,omitempty"`
}

// Version is a stored artifact version.
type Version struct {
	Name        string         `json:"name"`
	Version     int            `json:"version"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	FileName    string         `json:"file_name"`
	Digest      string         `json:"digest"`
	Size        int64          `json:"size"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Reference returns the reference of this version.
func (v Version) Reference() Reference {
	return Reference{Name: v.Name, Version: v.Version, Digest: v.Digest}
}

// Summary describes an artifact name and its newest version.
type Summary struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Latest    int       `json:"latest"`
	Versions  int       `json:"versions"`
	UpdatedAt time.Time `json:"updated_at"`
}
