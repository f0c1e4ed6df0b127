package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEnablesLoggingOnlyForExactMatch(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", false},
		{"0", false},
		{"", false},
		{"yes", false},
	}
	for _, c := range cases {
		t.Setenv("RUDP_LOG", c.value)
		cfg, err := Load(context.Background())
		require.NoError(t, err)
		require.Equal(t, c.want, cfg.LogEnabled, "RUDP_LOG=%q", c.value)
	}
}

func TestLoadReadsLogDir(t *testing.T) {
	t.Setenv("RUDP_LOG_DIR", "/tmp/rudp-logs")
	cfg, err := Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/tmp/rudp-logs", cfg.LogDir)
}
