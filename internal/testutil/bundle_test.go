package testutil

import (
	"testing"
)

func TestRender_ExtraReplacesOmitted(t *testing.T) {
	b := DefaultBundle()
	b.Checksums = false
	b.Omit = []string{"model.json", "labels.json"}
	b.Extra = map[string]string{"model.json": "{not json"}

	files := b.Render(t)
	if got := string(files["model.json"]); got != "{not json" {
		t.Errorf("model.json = %q, want the extra body", got)
	}
	if _, ok := files["labels.json"]; ok {
		t.Error("labels.json should be omitted")
	}
	if _, ok := files["SHA256SUMS"]; ok {
		t.Error("SHA256SUMS written with checksums disabled")
	}
}
