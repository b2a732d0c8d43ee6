package observability

import "testing"

func TestParseHeaders(t *testing.T) {
	got := parseHeaders(" a=1, b = two ,broken, =x, c=")
	if len(got) != 2 || got["a"] != "1" || got["b"] != "two" {
		t.Fatalf("headers: %+v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("empty input should yield nil")
	}
}

func TestSampleRatioClamps(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	if got := sampleRatio(); got != 1 {
		t.Fatalf("ratio: want=1 got=%v", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "nope")
	if got := sampleRatio(); got != 0.1 {
		t.Fatalf("ratio: want=0.1 got=%v", got)
	}
}
