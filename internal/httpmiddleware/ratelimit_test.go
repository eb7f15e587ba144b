package httpmiddleware

import "testing"

func TestTokenBucketExhaustion(t *testing.T) {
	l := NewSimpleTokenBucket(3, 3)

	for i := 0; i < 3; i++ {
		if !l.allow("10.0.0.1") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if l.allow("10.0.0.1") {
		t.Fatal("request past capacity should be limited")
	}

	// Buckets are per client.
	if !l.allow("10.0.0.2") {
		t.Fatal("fresh client should pass")
	}
}
