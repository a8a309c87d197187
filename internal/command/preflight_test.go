package command

import (
	"bytes"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLookPath(found ...string) LookPathFunc {
	return func(file string) (string, error) {
		for _, f := range found {
			if f == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", &exec.Error{Name: file, Err: exec.ErrNotFound}
	}
}

func TestEnsureTools_AllFound(t *testing.T) {
	var buf bytes.Buffer
	err := EnsureTools(fakeLookPath("gsettings", "dconf"), &buf, "gsettings", "dconf")
	require.NoError(t, err)
	assert.Equal(t, "tool gsettings: /usr/bin/gsettings\ntool dconf: /usr/bin/dconf\n", buf.String())
}

func TestEnsureTools_Missing(t *testing.T) {
	var buf bytes.Buffer
	err := EnsureTools(fakeLookPath("dconf"), &buf, "gsettings", "dconf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLaunch))
	assert.Contains(t, err.Error(), "gsettings")
	assert.Contains(t, buf.String(), "tool gsettings: not found")
}

func TestEnsureTools_Dedupes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EnsureTools(fakeLookPath("gconftool-2"), &buf, "gconftool-2", "gconftool-2", ""))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
}
