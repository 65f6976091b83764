package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostsRemove_UninstalledRequiresYes(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "uninstalled alone", args: []string{"web-01", "--uninstalled"}},
		{name: "yes alone", args: []string{"web-01", "--yes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newHostsRemoveCmd()
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "uninstalled")
			assert.Contains(t, err.Error(), "yes")
		})
	}
}
