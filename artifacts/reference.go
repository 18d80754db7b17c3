package artifacts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AliasLatest is the alias every new version takes over.
const AliasLatest = "latest"

var versionAlias = regexp.MustCompile(`^v(\d+)$`)

// Reference names one artifact version as "name[:alias]". The alias is either
// "latest", an explicit version such as "v3", or a named alias.
type Reference struct {
	Name  string
	Alias string
}

// ParseReference splits raw at its last colon. A missing alias means "latest".
func ParseReference(raw string) (Reference, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Reference{}, fmt.Errorf("empty artifact reference")
	}

	ref := Reference{Name: raw, Alias: AliasLatest}
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		ref.Name, ref.Alias = raw[:i], raw[i+1:]
	}
	if ref.Alias == "" {
		return Reference{}, fmt.Errorf("artifact reference %q has an empty alias", raw)
	}
	if err := ValidateName(ref.Name); err != nil {
		return Reference{}, err
	}
	return ref, nil
}

// Version returns the explicit version number of the alias, if it is one.
func (r Reference) Version() (int, bool) {
	m := versionAlias.FindStringSubmatch(r.Alias)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (r Reference) String() string {
	return r.Name + ":" + r.Alias
}

// ValidateName rejects names that could escape the store root.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty artifact name")
	}
	if strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		return fmt.Errorf("artifact name %q must be relative", name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || part == "." || part == ".." {
			return fmt.Errorf("artifact name %q has an invalid path segment", name)
		}
	}
	return nil
}
