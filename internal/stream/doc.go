// Package stream supervises the ffmpeg process that forwards the local
// webcam to the Twitch ingest endpoint. The supervisor restarts ffmpeg with
// bounded backoff when it exits, and a udev monitor watches for the capture
// device reappearing so a replugged camera resumes the stream immediately.
package stream
