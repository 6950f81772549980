package model

import "testing"

func TestKeyString(t *testing.T) {
	k := Key{Product: "A", TaskNum: 80}
	if got, want := k.String(), "A_80"; got != want {
		t.Errorf("Key.String() = %q, want %q", got, want)
	}
}

func TestKeyIsQualityInspection(t *testing.T) {
	primary := Key{Product: "A", TaskNum: 80}
	qi := Key{Product: "A", TaskNum: 80 + QIOffset}

	if primary.IsQualityInspection() {
		t.Errorf("primary task %v should not be a quality inspection", primary)
	}
	if !qi.IsQualityInspection() {
		t.Errorf("task %v with +QIOffset should be a quality inspection", qi)
	}
	if got, want := qi.PrimaryTaskNum(), 80; got != want {
		t.Errorf("PrimaryTaskNum() = %d, want %d", got, want)
	}
}

func TestPackNodeIDIsDeterministicAndCollisionFree(t *testing.T) {
	a := PackNodeID(0, 80)
	b := PackNodeID(1, 80)
	c := PackNodeID(0, 10080)

	if a == b {
		t.Errorf("different products with the same task number must not collide: %d == %d", a, b)
	}
	if a == c {
		t.Errorf("same product with different task numbers must not collide: %d == %d", a, c)
	}
	if PackNodeID(0, 80) != a {
		t.Errorf("PackNodeID must be deterministic for the same inputs")
	}
}
