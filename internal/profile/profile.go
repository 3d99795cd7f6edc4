// Package profile provides YAML-declared TSA issuing profiles: the policy
// OID, accuracy and certificate chain a timestamping service signs under.
package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/remiblancher/qtsa/internal/tsp"
)

// Profile describes a TSA issuing policy.
type Profile struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Policy is the dotted OID issued tokens are stamped under when the
	// request does not name one.
	Policy string `yaml:"policy"`

	// AccuracySeconds declares the clock accuracy embedded in tokens.
	AccuracySeconds int `yaml:"accuracySeconds,omitempty"`

	// Ordering asserts that gen times of tokens from this TSA are ordered.
	Ordering bool `yaml:"ordering,omitempty"`

	// Digests restricts the imprint algorithms accepted from requests.
	// Empty means every supported digest is accepted.
	Digests []string `yaml:"digests,omitempty"`

	// CertChain lists PEM files bundled with the signer certificate when
	// requests ask for certificate inclusion.
	CertChain []string `yaml:"certChain,omitempty"`
}

// Load reads and validates a profile from a YAML file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates profile YAML.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks the profile for consistency.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: name is required")
	}
	if p.Policy == "" {
		return fmt.Errorf("profile %s: policy OID is required", p.Name)
	}
	var f tsp.ResponseFactory
	if err := f.SetDefaultPolicyID(p.Policy); err != nil {
		return fmt.Errorf("profile %s: invalid policy OID %q", p.Name, p.Policy)
	}
	if p.AccuracySeconds < 0 {
		return fmt.Errorf("profile %s: negative accuracy", p.Name)
	}
	for _, name := range p.Digests {
		if _, err := tsp.ResolveDigestAlgorithm(name); err != nil {
			return fmt.Errorf("profile %s: unsupported digest %q", p.Name, name)
		}
	}
	return nil
}

// AllowsDigest reports whether the profile accepts an imprint digest.
func (p *Profile) AllowsDigest(alg tsp.DigestAlgorithm) bool {
	if len(p.Digests) == 0 {
		return true
	}
	for _, name := range p.Digests {
		resolved, err := tsp.ResolveDigestAlgorithm(name)
		if err != nil {
			continue
		}
		if resolved.Hash == alg.Hash {
			return true
		}
	}
	return false
}

// Configure applies the profile to a response factory: default policy,
// accuracy, ordering, and the additional certificate chain. Relative chain
// paths are resolved against baseDir.
func (p *Profile) Configure(f *tsp.ResponseFactory, baseDir string) error {
	if err := f.SetDefaultPolicyID(p.Policy); err != nil {
		return err
	}
	f.Accuracy = tsp.Accuracy{Seconds: p.AccuracySeconds}
	f.Ordering = p.Ordering

	for _, path := range p.CertChain {
		if baseDir != "" && !strings.HasPrefix(path, "/") {
			path = baseDir + "/" + path
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read chain certificate: %w", err)
		}
		certs, err := tsp.CertificatesFrom(data)
		if err != nil {
			return fmt.Errorf("parse chain certificate %s: %w", path, err)
		}
		f.AdditionalCerts = append(f.AdditionalCerts, certs...)
	}
	return nil
}
