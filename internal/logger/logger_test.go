package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"INFO":    logrus.InfoLevel,
		"warning": logrus.WarnLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
	}
	for name, want := range cases {
		if err := SetLevel(name); err != nil {
			t.Fatalf("SetLevel(%q): %v", name, err)
		}
		if Log.GetLevel() != want {
			t.Errorf("SetLevel(%q) = %v, want %v", name, Log.GetLevel(), want)
		}
	}

	if err := SetLevel("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
