// Package ilda decodes ILDA Image Data Transfer Format (IDTF) files.
// It walks the file section by section, resolves indexed colors through the
// active palette and reports frames to a FrameConsumer as open/put/push events.
package ilda
