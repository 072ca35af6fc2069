package version

import (
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
)

const Header = "X-Inbox-Version"

// MinCompatibleMajor is the oldest client major version the server accepts.
const MinCompatibleMajor = 0

const (
	versionDevel   = "devel"
	versionUnknown = "unknown"
)

// version is set via ldflags at build time.
// falls back to debug.ReadBuildInfo for go install.
var version = versionDevel

var once sync.Once

func Get() string {
	once.Do(func() {
		if version != versionDevel {
			return
		}
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if v := info.Main.Version; v != "" && v != "("+versionDevel+")" {
			version = v
		}
	})
	return version
}

// IsDevelopment returns true for versions that should skip compatibility checks.
func IsDevelopment(v string) bool {
	return v == versionDevel || v == versionUnknown || v == "" ||
		strings.Contains(v, "dirty") ||
		strings.Contains(v, "-0.")
}

// ParseMajor extracts the major version number from a semver string.
// Returns "0" for unparseable versions.
func ParseMajor(v string) string {
	v = strings.TrimPrefix(v, "v")
	if idx := strings.Index(v, "."); idx > 0 {
		return v[:idx]
	}
	return "0"
}

// IsNewer reports whether latest is a newer release than current.
// Development builds are never considered outdated.
func IsNewer(current, latest string) bool {
	if IsDevelopment(current) {
		return false
	}
	c := parseParts(current)
	l := parseParts(latest)
	for i := range c {
		if l[i] != c[i] {
			return l[i] > c[i]
		}
	}
	return false
}

func parseParts(v string) [3]int {
	var parts [3]int
	v = strings.TrimPrefix(v, "v")
	if idx := strings.IndexAny(v, "-+"); idx >= 0 {
		v = v[:idx]
	}
	for i, s := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(s)
		if err != nil {
			break
		}
		parts[i] = n
	}
	return parts
}

type CompatibilityError struct {
	ClientVersion string
	ServerVersion string
	MinVersion    string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("client version %s is no longer supported (minimum %s)", e.ClientVersion, e.MinVersion)
}

// CheckCompatibility returns a *CompatibilityError when the client's major
// version is below MinCompatibleMajor.
func CheckCompatibility(clientVersion string) *CompatibilityError {
	if IsDevelopment(clientVersion) {
		return nil
	}
	major, err := strconv.Atoi(ParseMajor(clientVersion))
	if err != nil || major >= MinCompatibleMajor {
		return nil
	}
	return &CompatibilityError{
		ClientVersion: clientVersion,
		ServerVersion: Get(),
		MinVersion:    fmt.Sprintf("v%d.0.0", MinCompatibleMajor),
	}
}
