// Package notifications delivers push notifications through ntfy for events
// an operator should act on, such as expired Twitch credentials. When no
// topic is configured a noop implementation is used.
package notifications
