package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFromEnv(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		expectedAddr string
		expectedPass string
		expectedDB   int
		wantErr      bool
	}{
		{
			name:         "host and default port",
			env:          map[string]string{EnvKeyHost: "cache", EnvKeyPassword: "pw"},
			expectedAddr: "cache:6379",
			expectedPass: "pw",
		},
		{
			name:         "explicit port",
			env:          map[string]string{EnvKeyHost: "cache", EnvKeyPort: "6380"},
			expectedAddr: "cache:6380",
		},
		{
			name:         "uri takes precedence",
			env:          map[string]string{EnvKeyURI: "redis://:secret@example:7000/2", EnvKeyHost: "ignored"},
			expectedAddr: "example:7000",
			expectedPass: "secret",
			expectedDB:   2,
		},
		{
			name:    "invalid uri",
			env:     map[string]string{EnvKeyURI: "http://nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{EnvKeyURI, EnvKeyHost, EnvKeyPort, EnvKeyPassword} {
				t.Setenv(k, tt.env[k])
			}
			opts, err := OptionsFromEnv()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedAddr, opts.Addr)
			assert.Equal(t, tt.expectedPass, opts.Password)
			assert.Equal(t, tt.expectedDB, opts.DB)
		})
	}
}

func TestEnabled(t *testing.T) {
	t.Setenv(EnvKeyURI, "")
	t.Setenv(EnvKeyHost, "")
	assert.False(t, Enabled())

	t.Setenv(EnvKeyHost, "localhost")
	assert.True(t, Enabled())
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Setenv(EnvKeyURI, "redis://"+mr.Addr())
	rdb, err := NewRedisClient(context.Background())
	require.NoError(t, err)
	defer rdb.Close()

	assert.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	t.Setenv(EnvKeyURI, "redis://"+addr)
	rdb, err := NewRedisClient(context.Background())
	assert.Error(t, err)
	assert.Nil(t, rdb)
}
