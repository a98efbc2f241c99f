package transcribe

import "errors"

// ErrTranscriptionFailed wraps the last observed cause after a segment
// exhausts its retry budget or hits a fatal provider error. Callers inspect
// the cause with errors.Is against the apierr sentinels.
var ErrTranscriptionFailed = errors.New("transcription failed")
