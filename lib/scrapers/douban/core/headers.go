package core

import (
	"net/url"
	"strings"
)

const chromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// the site serves books/movies/music from separate vhosts that
// challenge requests whose host/referer pair doesn't match, so each
// logical sub-domain gets its own header set.
type headerSet struct {
	host    string
	referer string
}

var headerSets = map[string]headerSet{
	"book":    {host: "book.douban.com", referer: "https://book.douban.com/"},
	"movie":   {host: "movie.douban.com", referer: "https://movie.douban.com/"},
	"music":   {host: "music.douban.com", referer: "https://music.douban.com/"},
	"default": {host: "www.douban.com", referer: "https://www.douban.com/"},
}

func subDomainOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "default"
	}
	host := u.Hostname()
	switch {
	case strings.HasPrefix(host, "book."):
		return "book"
	case strings.HasPrefix(host, "movie."):
		return "movie"
	case strings.HasPrefix(host, "music."):
		return "music"
	default:
		return "default"
	}
}

// assembles the header map for a request: the sub-domain set first,
// then the credential cookie, caller overrides last.
func buildHeaders(target string, cred Credential, overrides map[string]string) map[string]string {
	set := headerSets[subDomainOf(target)]
	headers := map[string]string{
		"host":            set.host,
		"user-agent":      chromeUserAgent,
		"accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"accept-language": "zh-CN,zh;q=0.9,en;q=0.8",
		"referer":         set.referer,
	}
	if cred.Cookie != "" {
		headers["cookie"] = cred.Cookie
	}
	for k, v := range overrides {
		headers[strings.ToLower(k)] = v
	}
	return headers
}
