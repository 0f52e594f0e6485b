package adapters

import (
	"avatar-video-api/application/ports/outbound"
	"io"
)

func newTestLogger() outbound.LoggerPort {
	return NewZerologWrapperWithWriter(io.Discard, "debug")
}
