package scraper

import (
	"net/url"
	"strings"
)

// Platform enumerates the social networks the resolver recognises.
type Platform string

const (
	PlatformLinkedIn    Platform = "linkedin"
	PlatformTwitter     Platform = "twitter"
	PlatformFacebook    Platform = "facebook"
	PlatformInstagram   Platform = "instagram"
	PlatformYouTube     Platform = "youtube"
	PlatformGitHub      Platform = "github"
	PlatformWhatsApp    Platform = "whatsapp"
	PlatformTikTok      Platform = "tiktok"
	PlatformPinterest   Platform = "pinterest"
	PlatformSnapchat    Platform = "snapchat"
	PlatformThreads     Platform = "threads"
	PlatformTripAdvisor Platform = "tripadvisor"
)

// Platforms lists every supported platform in a stable order.
var Platforms = []Platform{
	PlatformLinkedIn,
	PlatformTwitter,
	PlatformFacebook,
	PlatformInstagram,
	PlatformYouTube,
	PlatformGitHub,
	PlatformWhatsApp,
	PlatformTikTok,
	PlatformPinterest,
	PlatformSnapchat,
	PlatformThreads,
	PlatformTripAdvisor,
}

// SocialProfileSet holds at most one canonical profile URL per platform.
// Fields are fixed rather than an open map so presence versus absence is
// visible in the type.
type SocialProfileSet struct {
	LinkedIn    string `json:"linkedin,omitempty"`
	Twitter     string `json:"twitter,omitempty"`
	Facebook    string `json:"facebook,omitempty"`
	Instagram   string `json:"instagram,omitempty"`
	YouTube     string `json:"youtube,omitempty"`
	GitHub      string `json:"github,omitempty"`
	WhatsApp    string `json:"whatsapp,omitempty"`
	TikTok      string `json:"tiktok,omitempty"`
	Pinterest   string `json:"pinterest,omitempty"`
	Snapchat    string `json:"snapchat,omitempty"`
	Threads     string `json:"threads,omitempty"`
	TripAdvisor string `json:"tripadvisor,omitempty"`
}

// URL returns the recorded profile URL for the platform, empty when absent.
func (s *SocialProfileSet) URL(p Platform) string {
	switch p {
	case PlatformLinkedIn:
		return s.LinkedIn
	case PlatformTwitter:
		return s.Twitter
	case PlatformFacebook:
		return s.Facebook
	case PlatformInstagram:
		return s.Instagram
	case PlatformYouTube:
		return s.YouTube
	case PlatformGitHub:
		return s.GitHub
	case PlatformWhatsApp:
		return s.WhatsApp
	case PlatformTikTok:
		return s.TikTok
	case PlatformPinterest:
		return s.Pinterest
	case PlatformSnapchat:
		return s.Snapchat
	case PlatformThreads:
		return s.Threads
	case PlatformTripAdvisor:
		return s.TripAdvisor
	}
	return ""
}

func (s *SocialProfileSet) set(p Platform, value string) {
	switch p {
	case PlatformLinkedIn:
		s.LinkedIn = value
	case PlatformTwitter:
		s.Twitter = value
	case PlatformFacebook:
		s.Facebook = value
	case PlatformInstagram:
		s.Instagram = value
	case PlatformYouTube:
		s.YouTube = value
	case PlatformGitHub:
		s.GitHub = value
	case PlatformWhatsApp:
		s.WhatsApp = value
	case PlatformTikTok:
		s.TikTok = value
	case PlatformPinterest:
		s.Pinterest = value
	case PlatformSnapchat:
		s.Snapchat = value
	case PlatformThreads:
		s.Threads = value
	case PlatformTripAdvisor:
		s.TripAdvisor = value
	}
}

// With returns a copy of the set with the platform's URL recorded.
func (s SocialProfileSet) With(p Platform, value string) SocialProfileSet {
	s.set(p, value)
	return s
}

// Map flattens the set into platform → URL pairs, omitting absent platforms.
func (s *SocialProfileSet) Map() map[string]string {
	out := make(map[string]string)
	for _, p := range Platforms {
		if u := s.URL(p); u != "" {
			out[string(p)] = u
		}
	}
	return out
}

// platformRule pairs the host/path signatures that identify a platform with
// the sub-path fragments that mark non-profile resources (posts, share
// intents, videos) which must never be recorded as the profile URL.
type platformRule struct {
	platform   Platform
	signatures []string
	excludes   []string
}

// platformRules is the resolver's classification table. Matching is done by
// case-insensitive substring over the raw href.
var platformRules = []platformRule{
	{PlatformLinkedIn,
		[]string{"linkedin.com/company/", "linkedin.com/in/", "linkedin.com/school/"},
		[]string{"/posts/", "/pulse/", "/feed/", "/sharing/", "sharearticle"}},
	{PlatformTwitter,
		[]string{"twitter.com/", "x.com/"},
		[]string{"/status/", "/intent/", "/share", "/hashtag/", "/i/"}},
	{PlatformFacebook,
		[]string{"facebook.com/", "fb.com/"},
		[]string{"/sharer", "/share", "/plugins/", "/dialog/", "/watch", "/events/", "/groups/"}},
	{PlatformInstagram,
		[]string{"instagram.com/"},
		[]string{"/p/", "/reel/", "/reels/", "/explore/", "/share"}},
	{PlatformYouTube,
		[]string{"youtube.com/", "youtu.be/"},
		[]string{"/watch", "/embed/", "/shorts/", "/playlist", "/clip/"}},
	{PlatformGitHub,
		[]string{"github.com/"},
		[]string{"/issues", "/pull", "/blob/", "/commit", "/releases/"}},
	{PlatformWhatsApp,
		[]string{"wa.me/", "api.whatsapp.com/send", "chat.whatsapp.com/"},
		nil},
	{PlatformTikTok,
		[]string{"tiktok.com/"},
		[]string{"/video/", "/share", "/embed/"}},
	{PlatformPinterest,
		[]string{"pinterest.com/", "pinterest.co.uk/"},
		[]string{"/pin/", "/pin-builder"}},
	{PlatformSnapchat,
		[]string{"snapchat.com/"},
		[]string{"/story/", "/spotlight/", "/share"}},
	{PlatformThreads,
		[]string{"threads.net/", "threads.com/"},
		[]string{"/post/", "/intent"}},
	{PlatformTripAdvisor,
		[]string{"tripadvisor."},
		[]string{"showuserreviews", "userreview"}},
}

// ClassifyProfileLink matches an href against the platform rule table. It
// returns false for hrefs that hit an exclusion pattern, so a LinkedIn post
// permalink is not mistaken for the company profile.
func ClassifyProfileLink(href string) (Platform, bool) {
	lower := strings.ToLower(strings.TrimSpace(href))
	if lower == "" {
		return "", false
	}
	for _, rule := range platformRules {
		matched := false
		for _, sig := range rule.signatures {
			if strings.Contains(lower, sig) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, excl := range rule.excludes {
			if strings.Contains(lower, excl) {
				return "", false
			}
		}
		return rule.platform, true
	}
	return "", false
}

// ResolveSocialLinks scans the page anchors and fills at most one canonical
// URL per platform. Anchors inside header/footer/nav/social regions are
// processed before body anchors; within each partition the first qualifying
// match wins and is never overwritten.
func ResolveSocialLinks(page *PageDocument) SocialProfileSet {
	var set SocialProfileSet
	if page == nil {
		return set
	}

	var priority, other []Anchor
	for _, a := range page.Anchors {
		if a.Region.Priority() {
			priority = append(priority, a)
		} else {
			other = append(other, a)
		}
	}

	for _, partition := range [][]Anchor{priority, other} {
		for _, anchor := range partition {
			platform, ok := ClassifyProfileLink(anchor.Href)
			if !ok || set.URL(platform) != "" {
				continue
			}
			canonical := canonicalProfileURL(anchor.Href)
			if canonical == "" {
				continue
			}
			set.set(platform, canonical)
		}
	}
	return set
}

// canonicalProfileURL strips query and fragment and normalises scheme-relative
// or bare-domain hrefs to absolute HTTPS.
func canonicalProfileURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	} else if !strings.Contains(href, "://") {
		href = "https://" + href
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Scheme = "https"
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
