package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, name := range []string{"migrate", "seed", "export-approvals", "finalize-sagas", "issue-token"} {
		require.True(t, names[name], name)
	}
	export, _, err := root.Find([]string{"export-approvals"})
	require.NoError(t, err)
	require.Equal(t, "approval-requests.xlsx", export.Flags().Lookup("out").DefValue)
}
