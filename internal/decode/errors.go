package decode

import "errors"

// ErrDecodeFailed indicates the container or codec could not be decoded.
var ErrDecodeFailed = errors.New("audio decode failed")

// ErrFFmpegNotFound indicates no ffmpeg binary is available for video input.
var ErrFFmpegNotFound = errors.New("ffmpeg not found")
