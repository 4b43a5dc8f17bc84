package capture

import (
	"slices"
	"strconv"
	"testing"

	"streamrec/pkg/logx"
)

func hasPair(args []string, k, v string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == k && args[i+1] == v {
			return true
		}
	}
	return false
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()
	f := NewFFmpeg(logx.Nop())
	args := f.buildArgs("udp://239.0.0.1:1234", "/out/rec.ts")

	if !hasPair(args, "-i", "udp://239.0.0.1:1234") {
		t.Fatalf("missing input: %v", args)
	}
	if !slices.Contains(args, "-an") {
		t.Fatalf("audio not disabled: %v", args)
	}
	if !hasPair(args, "-c", "copy") {
		t.Fatalf("not remuxing: %v", args)
	}
	if !hasPair(args, "-f", "mpegts") {
		t.Fatalf("wrong container: %v", args)
	}
	if args[len(args)-1] != "/out/rec.ts" {
		t.Fatalf("output must be last: %v", args)
	}
	if !hasPair(args, "-buffer_size", strconv.Itoa(defaultBufferSize)) {
		t.Fatalf("udp source must get a bounded receive buffer: %v", args)
	}
}

func TestBuildArgsBufferSize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		uri      string
		size     int
		buffered bool
	}{
		{name: "udp default", uri: "udp://239.0.0.1:1234", buffered: true},
		{name: "rtsp", uri: "rtsp://cam.local/stream", buffered: true},
		{name: "rtp", uri: "rtp://239.0.0.1:5004", buffered: true},
		{name: "custom size", uri: "udp://239.0.0.1:1234", size: 4096, buffered: true},
		{name: "http passthrough", uri: "http://cam.local/stream.ts"},
		{name: "unparsable", uri: "::not a uri::"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFFmpeg(logx.Nop())
			f.BufferSize = tt.size
			args := f.buildArgs(tt.uri, "/out/rec.ts")
			got := slices.Contains(args, "-buffer_size")
			if got != tt.buffered {
				t.Fatalf("buffer_size present = %v, want %v (args %v)", got, tt.buffered, args)
			}
			if tt.buffered && tt.size > 0 && !hasPair(args, "-buffer_size", strconv.Itoa(tt.size)) {
				t.Fatalf("custom buffer size not applied: %v", args)
			}
		})
	}
}
