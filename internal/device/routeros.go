package device

import (
	"regexp"
	"strings"
)

// DefaultIdentity is reported when the identity probe prints nothing usable.
const DefaultIdentity = "MikroTik"

// DefaultProfile is the hotspot user profile every RouterOS install has.
const DefaultProfile = "default"

// IdentityCommand prints the router identity.
const IdentityCommand = "/system identity print"

// ProfilesCommand lists hotspot user profiles.
const ProfilesCommand = "/ip hotspot user profile print"

var profileNameRe = regexp.MustCompile(`name=([^\s]+)`)

// Quote renders s as a RouterOS double-quoted string. "$" is escaped so the
// device does not expand it as a variable.
func Quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)
	return `"` + r.Replace(s) + `"`
}

// ParseIdentity extracts the value of the first "name:" line.
func ParseIdentity(out string) string {
	for _, line := range strings.Split(out, "\n") {
		_, after, found := strings.Cut(line, "name:")
		if !found {
			continue
		}
		if name := strings.TrimSpace(after); name != "" {
			return name
		}
	}
	return DefaultIdentity
}

// ParseProfiles collects profile names from ProfilesCommand output in the
// order they appear, without duplicates. It never returns an empty list.
func ParseProfiles(out string) []string {
	var profiles []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		m := profileNameRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.Trim(m[1], `"`)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		profiles = append(profiles, name)
	}
	if len(profiles) == 0 {
		return []string{DefaultProfile}
	}
	return profiles
}

// ProfileSpec describes a hotspot user profile to create.
type ProfileSpec struct {
	Name             string
	RateLimit        string // e.g. "2M/2M"
	KeepaliveTimeout string // e.g. "00:15:00"
}

// ProfileAddCommand builds the command creating spec. Empty optional fields are omitted.
func ProfileAddCommand(spec ProfileSpec) string {
	var b strings.Builder
	b.WriteString("/ip hotspot user profile add name=")
	b.WriteString(Quote(spec.Name))
	if spec.RateLimit != "" {
		b.WriteString(" rate-limit=")
		b.WriteString(Quote(spec.RateLimit))
	}
	if spec.KeepaliveTimeout != "" {
		b.WriteString(" keepalive-timeout=")
		b.WriteString(Quote(spec.KeepaliveTimeout))
	}
	return b.String()
}

// UserAddCommand builds the command creating a hotspot user. The password
// and limit-uptime arguments are left out when empty.
func UserAddCommand(username, password, profile, limitUptime string) string {
	var b strings.Builder
	b.WriteString("/ip hotspot user add name=")
	b.WriteString(Quote(username))
	if strings.TrimSpace(password) != "" {
		b.WriteString(" password=")
		b.WriteString(Quote(password))
	}
	b.WriteString(" profile=")
	b.WriteString(Quote(profile))
	if strings.TrimSpace(limitUptime) != "" {
		b.WriteString(" limit-uptime=")
		b.WriteString(Quote(limitUptime))
	}
	return b.String()
}

// IsDuplicateUser reports whether the device rejected a user because it already exists.
func IsDuplicateUser(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "already have user") || strings.Contains(s, "item already exists")
}
