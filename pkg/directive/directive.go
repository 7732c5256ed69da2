// Package directive renders responses in the IVR platform's plain-text
// directive syntax.
//
// The platform parses a response line by splitting on commas and '=' so any
// punctuation left inside spoken text corrupts the whole line. Every text that
// ends up inside a directive therefore goes through Sanitize.
package directive

import (
	"regexp"
	"strings"
)

const (
	// Hangup instructs the platform to disconnect immediately.
	Hangup = "hangup"

	// Ack acknowledges a hangup notification.
	Ack = "ok"

	// DefaultLocale is the speech locale used for recordings.
	DefaultLocale = "he-IL"
)

var (
	idAbbreviation = strings.NewReplacer(`ת"ז`, "תעודת זהות", "ת״ז", "תעודת זהות")

	punctuation = regexp.MustCompile(`[.!?;:,]`)
	quotes      = regexp.MustCompile("[\"'״׳`]")
	dashes      = regexp.MustCompile(`[-–—]`)
	whitespace  = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// Sanitize prepares text for spoken playback inside a directive.
func Sanitize(text string) string {
	text = idAbbreviation.Replace(text)
	text = punctuation.ReplaceAllString(text, " ")
	text = quotes.ReplaceAllString(text, "")
	text = dashes.ReplaceAllString(text, " ")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Read speaks text and then records the caller's answer into record_file.
func Read(text, locale string) string {
	if locale == "" {
		locale = DefaultLocale
	}
	return "read=t-" + Sanitize(text) + "=record_file,no,voice," + locale
}

// Message speaks text and lets the call end without another recording.
func Message(text string) string {
	return "id_list_message=t-" + Sanitize(text)
}

// Build returns Read when the platform should wait for a new recording and
// Message otherwise.
func Build(text, locale string, waitForRecording bool) string {
	if waitForRecording {
		return Read(text, locale)
	}
	return Message(text)
}
