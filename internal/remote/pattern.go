package remote

import (
	"net/url"
	"strings"
)

// EndpointPattern normalizes a URL into the key used for rate-limiter,
// backoff, and circuit-breaker state. Variable path segments (package names,
// repos, architectures) collapse to "*" so one struggling endpoint does not
// trip unrelated ones, while the endpoint's shape stays distinct.
//
//	https://archlinux.org/packages/extra/x86_64/ripgrep/json/ -> archlinux.org/packages/*/*/*/json/
//	https://aur.archlinux.org/rpc/v5/search?by=name&arg=rg    -> aur.archlinux.org/rpc/v5/search
//	https://aur.archlinux.org/cgit/aur.git/plain/.SRCINFO?h=x -> aur.archlinux.org/cgit/aur.git/plain/.SRCINFO
func EndpointPattern(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segs {
		if isVariableSegment(seg) {
			segs[i] = "*"
		}
	}
	pattern := u.Host + "/" + strings.Join(segs, "/")
	if strings.HasSuffix(u.Path, "/") {
		pattern += "/"
	}
	return pattern
}

// fixedSegments are path components that identify an endpoint rather than a
// resource inside it.
var fixedSegments = map[string]struct{}{
	"packages": {}, "search": {}, "json": {}, "rpc": {}, "v5": {},
	"info": {}, "cgit": {}, "aur.git": {}, "plain": {}, ".SRCINFO": {},
	"PKGBUILD": {}, "mirrors": {}, "status": {}, "feeds": {}, "news": {},
	"raw": {}, "-": {}, "archlinux": {}, "packaging": {}, "main": {}, "master": {},
}

func isVariableSegment(seg string) bool {
	if seg == "" {
		return false
	}
	_, fixed := fixedSegments[seg]
	return !fixed
}
