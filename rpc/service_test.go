package rpc

import "testing"

func TestEmptyLogsBloomLength(t *testing.T) {
	const want = 514 // "0x" + 512 hex chars (256-byte bloom filter)
	if len(emptyLogsBloom) != want {
		t.Fatalf("emptyLogsBloom length = %d, want %d", len(emptyLogsBloom), want)
	}
}
