package lifecycle

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// The issuance client is packaged for Ubuntu 16.04 (xenial) and later.
const (
	minUbuntuMajor = 16
	minUbuntuMinor = 4
)

// CheckPlatform verifies the host is new enough to run the issuance
// client, reading the os-release file at path (normally
// /etc/os-release). An unsupported platform is fatal: the caller halts
// in a blocked state with no further transitions possible.
func CheckPlatform(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read os-release: %w", err)
	}

	fields := parseOSRelease(string(data))
	id := fields["ID"]
	version := fields["VERSION_ID"]

	if id != "ubuntu" {
		return fmt.Errorf("unsupported platform %q, need ubuntu >= %d.%02d",
			id, minUbuntuMajor, minUbuntuMinor)
	}

	major, minor, err := parseVersion(version)
	if err != nil {
		return fmt.Errorf("unparseable VERSION_ID %q: %w", version, err)
	}
	if major < minUbuntuMajor || (major == minUbuntuMajor && minor < minUbuntuMinor) {
		return fmt.Errorf("unsupported series %s, need >= %d.%02d",
			version, minUbuntuMajor, minUbuntuMinor)
	}
	return nil
}

// parseOSRelease extracts KEY=value pairs, stripping quotes.
func parseOSRelease(content string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"`)
	}
	return fields
}

// parseVersion splits "16.04" into major and minor.
func parseVersion(version string) (major, minor int, err error) {
	majorStr, minorStr, _ := strings.Cut(version, ".")
	major, err = strconv.Atoi(majorStr)
	if err != nil {
		return 0, 0, err
	}
	if minorStr != "" {
		minor, err = strconv.Atoi(minorStr)
		if err != nil {
			return 0, 0, err
		}
	}
	return major, minor, nil
}
