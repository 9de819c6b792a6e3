package updater

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"

	"wurstmineberg/worldctl/internal/domain"
	"wurstmineberg/worldctl/internal/retry"
)

// Status classifies a version check.
type Status int

const (
	// StatusUpToDate means the installed version is the target.
	StatusUpToDate Status = iota
	// StatusUpdateAvailable means the target is newer than installed.
	StatusUpdateAvailable
	// StatusUnknown means the manifest was fetched but does not list
	// the installed version (custom or withdrawn builds).
	StatusUnknown
)

func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up to date"
	case StatusUpdateAvailable:
		return "update available"
	default:
		return "unknown"
	}
}

// CheckResult reports the outcome of a version check.
type CheckResult struct {
	Status  Status
	Current string
	Target  string
}

// Check compares the installed version against the spec's target in
// the published manifest.
func (c *Client) Check(ctx context.Context, current string, spec Spec) (CheckResult, error) {
	manifest, err := c.Manifest(ctx)
	if err != nil {
		return CheckResult{}, err
	}

	target, ok := manifest.Resolve(spec)
	if !ok {
		return CheckResult{}, fmt.Errorf("version spec does not match any published version: %w", domain.ErrConfig)
	}

	result := CheckResult{Current: current, Target: target.ID}
	if _, known := manifest.Lookup(current); !known {
		result.Status = StatusUnknown
		return result, nil
	}
	if Compare(current, target.ID) < 0 {
		result.Status = StatusUpdateAvailable
	}
	return result, nil
}

// JarName returns the shared-cache filename for a server version.
func JarName(version string) string {
	return fmt.Sprintf("minecraft_server.%s.jar", version)
}

// Download fetches the server jar for v into jarDir and returns its
// path. The artifact is written to a temporary file, verified against
// the manifest's sha1, and renamed into place only when the hash
// matches; on mismatch nothing is installed and ErrChecksum is
// returned without retrying. An already-present jar is reused.
func (c *Client) Download(ctx context.Context, v ManifestVersion, jarDir string) (string, error) {
	jarPath := filepath.Join(jarDir, JarName(v.ID))
	if _, err := os.Stat(jarPath); err == nil {
		return jarPath, nil
	}

	var info versionInfo
	if err := retry.Do(ctx, c.Retry, retry.IsTransient, func() error {
		return c.getJSON(ctx, v.URL, &info)
	}); err != nil {
		return "", fmt.Errorf("version info for %s: %v: %w", v.ID, err, domain.ErrNetwork)
	}
	if info.Downloads.Server.URL == "" {
		return "", fmt.Errorf("version %s publishes no server download: %w", v.ID, domain.ErrNetwork)
	}

	retryable := func(err error) bool {
		// A checksum mismatch is fatal; only transport hiccups retry.
		return !errors.Is(err, domain.ErrChecksum) && retry.IsTransient(err)
	}
	err := retry.Do(ctx, c.Retry, retryable, func() error {
		return c.fetchVerified(ctx, info.Downloads.Server.URL, info.Downloads.Server.SHA1, jarPath)
	})
	if err != nil {
		if errors.Is(err, domain.ErrChecksum) {
			return "", err
		}
		return "", fmt.Errorf("download %s: %v: %w", v.ID, err, domain.ErrNetwork)
	}
	return jarPath, nil
}

// fetchVerified streams url into a pending file at path, comparing the
// sha1 before the file becomes visible.
func (c *Client) fetchVerified(ctx context.Context, url, wantSHA1, path string) error {
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

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer pending.Cleanup()

	hash := sha1.New()
	if _, err := io.Copy(io.MultiWriter(pending, hash), resp.Body); err != nil {
		return err
	}

	got := hex.EncodeToString(hash.Sum(nil))
	if !strings.EqualFold(got, wantSHA1) {
		return fmt.Errorf("artifact sha1 %s, manifest says %s: %w", got, wantSHA1, domain.ErrChecksum)
	}

	return pending.CloseAtomicallyReplace()
}

// serviceJar is the name of the jar symlink inside a world directory.
const serviceJar = "minecraft_server.jar"

// InstallJar atomically repoints the world's server-jar symlink at
// jarPath: the new link is created beside the old one and renamed over
// it, so the world never sees a missing or half-written jar.
func InstallJar(jarPath, worldDir string) error {
	link := filepath.Join(worldDir, serviceJar)
	tmp := link + ".new"

	os.Remove(tmp)
	if err := os.Symlink(jarPath, tmp); err != nil {
		return fmt.Errorf("install jar: %w", err)
	}
	if err := os.Rename(tmp, link); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("install jar: %w", err)
	}
	return nil
}

// InstalledVersion reads the version a world is configured to run from
// its jar symlink. Worlds with a plain file (custom servers) or no jar
// at all report an empty version.
func InstalledVersion(worldDir string) (string, error) {
	link := filepath.Join(worldDir, serviceJar)
	target, err := os.Readlink(link)
	if err != nil {
		if _, statErr := os.Stat(link); statErr == nil {
			return "", nil // regular file, custom server
		}
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("server jar in %s: %w", worldDir, err)
	}

	base := filepath.Base(target)
	version := strings.TrimSuffix(strings.TrimPrefix(base, "minecraft_server."), ".jar")
	if version == base {
		return "", nil
	}
	return version, nil
}
