package obslog

import "github.com/dustin/go-humanize"

// OutOfMemory renders an out-of-memory warning with a human-readable size,
// e.g. "failed to allocate 128 MB for variable radiance".
func OutOfMemory(logger Logger, bytes uint64, context string) {
	logger.Error("failed to allocate %s for %s", humanize.Bytes(bytes), context)
}

// BufferGrowth logs a buffer resize, used by the ingestion optimizer's
// block buffer when it must grow to hold a wider range read.
func BufferGrowth(logger Logger, from, to uint64, context string) {
	logger.Warning("%s buffer grew from %s to %s", context, humanize.Bytes(from), humanize.Bytes(to))
}
