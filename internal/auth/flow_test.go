package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calgo/gcalendar/internal/gcalerr"
)

func TestFromClientSecretsFile_MissingFile(t *testing.T) {
	_, err := FromClientSecretsFile(context.Background(),
		filepath.Join(t.TempDir(), "missing.json"), nil, 0)
	require.Error(t, err)
	assert.True(t, gcalerr.IsNotFound(err))
}

func TestFromClientSecretsFile_NoClientSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, writeFile(path, `{"other":{"client_id":"x"}}`))

	_, err := FromClientSecretsFile(context.Background(), path, nil, 0)
	require.Error(t, err)
	assert.False(t, gcalerr.IsNotFound(err))
	assert.Contains(t, err.Error(), "no client_id")
}

func TestLoadClientSecrets(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantID     string
		wantSecret string
	}{
		{
			"installed section",
			`{"installed":{"client_id":"desktop-id","client_secret":"desktop-secret"}}`,
			"desktop-id", "desktop-secret",
		},
		{
			"web section",
			`{"web":{"client_id":"web-id","client_secret":"web-secret"}}`,
			"web-id", "web-secret",
		},
		{
			"installed wins over web",
			`{"installed":{"client_id":"desktop-id"},"web":{"client_id":"web-id"}}`,
			"desktop-id", "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "secrets.json")
			require.NoError(t, writeFile(path, tt.content))

			id, secret, err := loadClientSecrets(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			assert.Equal(t, tt.wantSecret, secret)
		})
	}
}

func TestLoadClientSecrets_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, writeFile(path, `not json`))

	_, _, err := loadClientSecrets(path)
	require.Error(t, err)
}
