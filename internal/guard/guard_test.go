package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePathRejectsTraversal(t *testing.T) {
	assert.Error(t, ValidatePath("write", "/workspace/../etc/passwd"))
}

func TestValidatePathRejectsSystemPrefix(t *testing.T) {
	for _, p := range []string{"/etc/passwd", "/var/log/x", "/proc/1/maps", "/"} {
		assert.Error(t, ValidatePath("write", p), "expected %s to be rejected", p)
	}
}

func TestValidatePathRejectsEmpty(t *testing.T) {
	assert.Error(t, ValidatePath("write", ""))
}

func TestValidatePathAllowsWorkspaceSubpath(t *testing.T) {
	assert.NoError(t, ValidatePath("write", "/workspace/project/main.go"))
}

func TestValidatePortRange(t *testing.T) {
	assert.Error(t, ValidatePort("expose", 80, nil), "expected port below 1024 to be rejected")
	assert.Error(t, ValidatePort("expose", 70000, nil), "expected port above 65535 to be rejected")
	assert.NoError(t, ValidatePort("expose", 8080, nil))
}

func TestValidatePortReserved(t *testing.T) {
	assert.Error(t, ValidatePort("expose", 3000, []int{3000, 22}))
}

func TestValidateSandboxIdentity(t *testing.T) {
	cases := map[string]bool{
		"my-sandbox-1": true,
		"":             false,
		"-leading":     false,
		"trailing-":    false,
		"has space":    false,
		"localhost":    false,
	}
	for id, wantOK := range cases {
		err := ValidateSandboxIdentity("route", id)
		if wantOK {
			assert.NoError(t, err, "id=%q", id)
		} else {
			assert.Error(t, err, "id=%q", id)
		}
	}
}

func TestValidateSandboxIdentityLengthLimit(t *testing.T) {
	long := ""
	for i := 0; i < 64; i++ {
		long += "a"
	}
	assert.Error(t, ValidateSandboxIdentity("route", long))
}
