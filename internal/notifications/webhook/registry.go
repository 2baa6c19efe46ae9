package webhook

import "strings"

// Registry maps webhook URLs to formatters.
type Registry struct {
	formatters map[Platform]Formatter
}

// NewRegistry creates a Registry with every built-in formatter.
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[Platform]Formatter)}
	for _, f := range []Formatter{
		&SlackFormatter{},
		&DiscordFormatter{},
		&GoogleChatFormatter{},
		&GenericFormatter{},
	} {
		r.formatters[f.Platform()] = f
	}
	return r
}

// Detect returns the platform for url. A known override wins over URL
// detection; unknown URLs are generic.
func (r *Registry) Detect(url string, override Platform) Platform {
	if override != "" {
		if _, ok := r.formatters[override]; ok {
			return override
		}
	}

	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "hooks.slack.com"):
		return PlatformSlack
	case strings.Contains(lower, "discord.com/api/webhooks"), strings.Contains(lower, "discordapp.com/api/webhooks"):
		return PlatformDiscord
	case strings.Contains(lower, "chat.googleapis.com"):
		return PlatformGoogleChat
	default:
		return PlatformGeneric
	}
}

// Get returns the formatter for p, or the generic one.
func (r *Registry) Get(p Platform) Formatter {
	if f, ok := r.formatters[p]; ok {
		return f
	}
	return r.formatters[PlatformGeneric]
}
