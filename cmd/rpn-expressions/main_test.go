package main

import (
	"testing"

	"github.com/karupanerura/rpn-expressions/internal/config"
)

func TestRunEvaluate(t *testing.T) {
	for _, tt := range []struct {
		args     []string
		expected int
	}{
		{args: []string{"--eval", "3,2,+"}, expected: 0},
		{args: []string{"-e", "3,2,+,5,6,4,*,/,*,10,+"}, expected: 0},
		{args: []string{"-e", "1,+"}, expected: 1},
		{args: []string{"-e", "1,2"}, expected: 1},
		{args: []string{"-e", "1,2", "--lenient"}, expected: 0},
		{args: []string{"-e", "1,abc"}, expected: 1},
		{args: []string{"-e", "1", "-l", ":0"}, expected: 1},
		{args: []string{"--unknown"}, expected: 1},
		{args: []string{}, expected: 1},
	} {
		if got := run(tt.args); got != tt.expected {
			t.Errorf("run(%q) = %d, expected %d", tt.args, got, tt.expected)
		}
	}
}

func TestApplyOption(t *testing.T) {
	t.Parallel()

	strict := true
	cfg := &config.Config{Listen: ":8080", StoreFile: "a.json", StrictEvaluation: &strict}
	applyOption(cfg, &Option{Store: "b.msgpack", Lenient: true})

	if cfg.Listen != ":8080" || cfg.StoreFile != "b.msgpack" || !cfg.Lenient() {
		t.Errorf("unexpected config: %+v", cfg)
	}
}
