package utils

import (
	"fmt"

	ua "github.com/mssola/user_agent"
)

// DescribeDevice turns a raw User-Agent string into a short human-readable
// label for login audit entries, e.g. "Chrome 126 on Linux" or "Mobile
// Safari on iPhone".
func DescribeDevice(userAgent string) string {
	if userAgent == "" || userAgent == "Unknown" {
		return "Unknown device"
	}

	parsed := ua.New(userAgent)
	browser, version := parsed.Browser()
	os := parsed.OS()

	if browser == "" {
		if os == "" {
			return "Unknown device"
		}
		return os
	}

	label := browser
	if version != "" {
		label = fmt.Sprintf("%s %s", browser, majorVersion(version))
	}
	if parsed.Mobile() {
		label = "Mobile " + label
	}
	if os != "" {
		label = fmt.Sprintf("%s on %s", label, os)
	}
	return label
}

func majorVersion(version string) string {
	for i := 0; i < len(version); i++ {
		if version[i] == '.' {
			return version[:i]
		}
	}
	return version
}
