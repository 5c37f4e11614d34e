package ticketing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"gopkg.in/yaml.v3"
)

// Naming is how ticket channels are named.
type Naming string

const (
	// NamingLabel names channels "{label}-{n}", e.g. buy-1.
	NamingLabel Naming = "label"

	// NamingLabelUser names channels "{label}-{user}-{n}", e.g. buy-alice-1.
	NamingLabelUser Naming = "label-user"
)

// Policy is the ticketing behaviour that differs between deployments.
type Policy struct {
	// RequireCategory refuses to publish panels or open tickets when no category is set.
	RequireCategory bool `yaml:"require_category"`

	// Naming is the ticket channel naming scheme.
	Naming Naming `yaml:"naming"`

	// DefaultColor is the panel color used when an invalid one is given. Hex, e.g. "#2B2D31".
	DefaultColor string `yaml:"default_color"`

	// OpenRate is how many tickets a member may try to open per minute.
	OpenRate float64 `yaml:"open_rate"`

	// OpenBurst is how many ticket open attempts a member may make at once.
	OpenBurst int `yaml:"open_burst"`
}

// DefaultPolicy returns the policy used when no policy file is given.
func DefaultPolicy() *Policy {
	return &Policy{
		RequireCategory: true,
		Naming:          NamingLabel,
		DefaultColor:    "#2B2D31",
		OpenRate:        3,
		OpenBurst:       2,
	}
}

// LoadPolicy reads a YAML policy file. Fields missing from the file keep their defaults. An empty path or a missing
// file returns the default policy.
func LoadPolicy(path string) (*Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	} else if err != nil {
		return nil, fmt.Errorf("error reading policy file: %w", err)
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("error decoding policy file %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid policy file %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the policy values.
func (p *Policy) Validate() error {
	switch p.Naming {
	case NamingLabel, NamingLabelUser:
	case "":
		p.Naming = NamingLabel
	default:
		return fmt.Errorf("unknown naming %q", p.Naming)
	}

	if p.DefaultColor != "" {
		if _, ok := ParseColor(p.DefaultColor); !ok {
			return fmt.Errorf("invalid default color %q", p.DefaultColor)
		}
	}

	if p.OpenRate < 0 || p.OpenBurst < 0 {
		return errors.New("open rate and burst must not be negative")
	}
	return nil
}

// FallbackColor is the color used when a given color does not parse.
func (p *Policy) FallbackColor() int {
	if c, ok := ParseColor(p.DefaultColor); ok {
		return c
	}
	return entities.DefaultPanelColor
}

// ParseColor parses a hex color such as "#3498db", "3498db" or "0x3498db".
func ParseColor(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if s == "" || len(s) > 6 {
		return 0, false
	}

	c, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, false
	}
	return int(c), true
}
