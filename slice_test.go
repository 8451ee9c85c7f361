package deskrt

import (
	"reflect"
	"testing"
)

func TestSliceArgsPythonStyleExcludesLastElement(t *testing.T) {
	s := []int{0, 1, 2, 3, 4}
	got, err := SliceArgs(s, 0, -1)
	if err != nil {
		t.Fatalf("SliceArgs: %v", err)
	}
	want := []int{0, 1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSliceArgsInclusiveIncludesLastElement(t *testing.T) {
	s := []int{0, 1, 2, 3, 4}
	got, err := SliceArgsInclusive(s, 0, -1)
	if err != nil {
		t.Fatalf("SliceArgsInclusive: %v", err)
	}
	want := []int{0, 1, 2, 3, 4}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSliceArgsBothEndsOutOfBounds(t *testing.T) {
	s := []int{0, 1, 2}
	if _, err := SliceArgs(s, -10, 2); err == nil {
		t.Fatal("expected IndexOutOfBounds for an out-of-range negative start")
	}
	if _, err := SliceArgs(s, 0, 10); err == nil {
		t.Fatal("expected IndexOutOfBounds for an end past length")
	}
}
