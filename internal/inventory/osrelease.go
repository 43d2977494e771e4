package inventory

import (
	"os"
	"runtime"
	"strings"
)

// indirection for tests
var fnLocalPlatform = localPlatform

const osReleasePath = "/etc/os-release"

// localPlatform derives a platform string such as "el-8-x86_64" or
// "ubuntu-2204-amd64" for the machine this process runs on.
func localPlatform() (string, bool) {
	if runtime.GOOS != "linux" {
		return "", false
	}
	data, err := os.ReadFile(osReleasePath)
	if err != nil {
		return "", false
	}
	return platformFromOSRelease(string(data), runtime.GOARCH)
}

func platformFromOSRelease(data, goarch string) (string, bool) {
	fields := map[string]string{}
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[k] = strings.Trim(v, `"'`)
	}
	id := strings.ToLower(fields["ID"])
	version := fields["VERSION_ID"]
	if id == "" || version == "" {
		return "", false
	}
	major, _, _ := strings.Cut(version, ".")

	debArch := goarch
	rpmArch := goarch
	switch goarch {
	case "amd64":
		rpmArch = "x86_64"
	case "arm64":
		rpmArch = "aarch64"
	case "386":
		debArch, rpmArch = "i386", "i386"
	}

	switch id {
	case "ubuntu":
		return "ubuntu-" + strings.ReplaceAll(version, ".", "") + "-" + debArch, true
	case "debian":
		return "debian-" + major + "-" + debArch, true
	case "fedora":
		return "fedora-" + major + "-" + rpmArch, true
	case "rhel", "centos", "rocky", "almalinux", "ol":
		return "el-" + major + "-" + rpmArch, true
	case "sles", "opensuse-leap":
		return "sles-" + major + "-" + rpmArch, true
	}
	if like := fields["ID_LIKE"]; strings.Contains(like, "rhel") || strings.Contains(like, "fedora") {
		return "el-" + major + "-" + rpmArch, true
	}
	return id + "-" + major + "-" + goarch, true
}
