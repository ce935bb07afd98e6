package main

import (
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	positional, flags := splitArgs([]string{"abc", "--log.level=debug", "finalize", "-x"})

	if want := []string{"abc", "finalize"}; !reflect.DeepEqual(positional, want) {
		t.Errorf("positional = %v, want %v", positional, want)
	}
	if want := []string{"--log.level=debug", "-x"}; !reflect.DeepEqual(flags, want) {
		t.Errorf("flags = %v, want %v", flags, want)
	}
}
