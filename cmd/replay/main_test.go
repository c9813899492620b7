package main

import (
	"bytes"
	"io"
	"log"
	"strings"
	"testing"
)

func TestVerifySplit_StarterFactory(t *testing.T) {
	in, err := loadInputs("../../configs", "", "", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	logger := log.New(io.Discard, "", 0)

	w, err := in.build(logger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	const ticks = 900
	for i := 0; i < ticks; i++ {
		w.Tick()
	}
	want := w.ExportSnapshot()

	for _, split := range []int{1, 250, 899} {
		ok, err := verifySplit(in, logger, ticks, split, want)
		if err != nil {
			t.Fatalf("split %d: %v", split, err)
		}
		if !ok {
			t.Fatalf("split %d diverged", split)
		}
	}
}

func TestPrintTotals(t *testing.T) {
	var buf bytes.Buffer
	printTotals(&buf, map[int]int{9: 40, 1: 3})
	if got := buf.String(); !strings.HasPrefix(got, "  resource 1: 3\n") {
		t.Fatalf("out=%q", got)
	}
}
