// Package twitch owns the Twitch Helix integration: the token manager that
// keeps a valid bearer token available across workers, the Helix client, and
// the publisher that delivers chat messages and title updates with bounded
// retries.
package twitch
