package version

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	v := Get()
	if v == "" {
		t.Fatal("version should not be empty")
	}
	if strings.ContainsAny(v, " \n\t") {
		t.Errorf("version %q should be trimmed", v)
	}
}

func TestUserAgent(t *testing.T) {
	if got := UserAgent(); got != "agentlabs/"+Get() {
		t.Errorf("UserAgent() = %q", got)
	}
}
