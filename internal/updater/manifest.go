// Package updater resolves the installed server version against
// Mojang's launcher manifest and installs new server jars. Downloads
// are verified against the published checksum and installed atomically;
// a crash mid-download never leaves a corrupt jar in place.
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/retry"
)

// DefaultManifestURL is Mojang's published version index.
const DefaultManifestURL = "https://launchermeta.mojang.com/mc/game/version_manifest.json"

const userAgent = "worldctl/0.1.0"

// Spec selects which version an update targets. The set is closed:
// exact id, latest release, or latest snapshot.
type Spec struct {
	// Exact, when non-empty, names the wanted version directly.
	Exact string

	// Snapshot selects the latest snapshot instead of the latest
	// release when Exact is empty.
	Snapshot bool
}

// ManifestVersion is one published version entry.
type ManifestVersion struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	URL         string    `json:"url"`
	ReleaseTime time.Time `json:"releaseTime"`
}

// Manifest is the launcher version index: the latest pointers plus
// every published version, newest first.
type Manifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
	Versions []ManifestVersion `json:"versions"`
}

// Resolve returns the manifest entry matching spec.
func (m *Manifest) Resolve(spec Spec) (ManifestVersion, bool) {
	wanted := spec.Exact
	if wanted == "" {
		if spec.Snapshot {
			wanted = m.Latest.Snapshot
		} else {
			wanted = m.Latest.Release
		}
	}
	return m.Lookup(wanted)
}

// Lookup returns the manifest entry with the given id.
func (m *Manifest) Lookup(id string) (ManifestVersion, bool) {
	for _, v := range m.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return ManifestVersion{}, false
}

// versionInfo is the per-version document the manifest entry links to.
// Only the server download matters here.
type versionInfo struct {
	Downloads struct {
		Server struct {
			SHA1 string `json:"sha1"`
			Size int64  `json:"size"`
			URL  string `json:"url"`
		} `json:"server"`
	} `json:"downloads"`
}

// Client fetches the manifest and artifacts. Transient transport
// failures are retried a bounded number of times before surfacing a
// NetworkError; checksum failures are never retried.
type Client struct {
	HTTP        *http.Client
	ManifestURL string
	Retry       retry.Config
}

// NewClient returns a Client with production defaults.
func NewClient() *Client {
	return &Client{
		HTTP:        &http.Client{Timeout: 30 * time.Second},
		ManifestURL: DefaultManifestURL,
		Retry:       retry.DefaultConfig(),
	}
}

// Manifest fetches and parses the version index.
func (c *Client) Manifest(ctx context.Context) (*Manifest, error) {
	var manifest Manifest
	err := retry.Do(ctx, c.Retry, retry.IsTransient, func() error {
		return c.getJSON(ctx, c.ManifestURL, &manifest)
	})
	if err != nil {
		return nil, fmt.Errorf("version manifest: %v: %w", err, domain.ErrNetwork)
	}
	return &manifest, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
