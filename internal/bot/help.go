package bot

import "strings"

// helpText is the fallback for unrecognized commands.
func helpText() string {
	lines := []string{
		"Commands:",
		"- rant [today] — rant at this channel (today = the rant of the day)",
		"- grant — let this channel receive scheduled rants (moderators only)",
		"- grant list — channels in this server that receive scheduled rants",
		"- deny — stop scheduled rants in this channel (moderators only)",
		"- settime <6-field cron> — change the rant schedule (moderators only)",
		"- ping — round-trip and gateway latency",
	}
	return strings.Join(lines, "\n")
}
