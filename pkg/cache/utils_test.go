package cache

import "testing"

func TestGenerateKey(t *testing.T) {
	if got := GenerateKey("adrfeed", "snapshot"); got != "adrfeed:snapshot" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := GenerateKey("", "snapshot"); got != "snapshot" {
		t.Fatalf("unexpected key %q", got)
	}
}
