package notification

import "log"

// ShowBlockingError reports a fatal startup problem to the user and returns
// once it has been acknowledged (Windows) or printed (elsewhere).
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	showBlockingError(title, message)
}
