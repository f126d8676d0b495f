package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectorType_Valid(t *testing.T) {
	tests := []struct {
		name     string
		ct       ConnectorType
		expected bool
	}{
		{"filesystem", ConnectorFilesystem, true},
		{"github", ConnectorGitHub, true},
		{"unknown", ConnectorType("gitlab"), false},
		{"empty", ConnectorType(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ct.Valid())
		})
	}
}

func TestSource_ConfigValue(t *testing.T) {
	t.Run("existing key", func(t *testing.T) {
		s := &Source{Config: map[ConfigKey]string{ConfigKeyPath: "/corpus"}}
		assert.Equal(t, "/corpus", s.ConfigValue(ConfigKeyPath))
	})

	t.Run("missing key", func(t *testing.T) {
		s := &Source{Config: map[ConfigKey]string{}}
		assert.Equal(t, "", s.ConfigValue(ConfigKeyOwner))
	})

	t.Run("nil config", func(t *testing.T) {
		s := &Source{}
		assert.Equal(t, "", s.ConfigValue(ConfigKeyPath))
	})
}
