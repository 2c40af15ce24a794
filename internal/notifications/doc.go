// Package notifications delivers pipeline milestones via ntfy.
//
// The default implementation posts to the topic configured in config.toml and
// gracefully degrades to a no-op when no topic is set, so commands can notify
// unconditionally.
package notifications
