package config

import (
	"strings"
	"testing"

	"github.com/rxtech-lab/candle-trader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLegacyConf(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		sandbox    Credentials
		production Credentials
		code       errors.ErrorCode
	}{
		{
			name:       "english labels with key pairs",
			input:      "key1:secret1 sandbox\nkey2:secret2 prod\n",
			sandbox:    Credentials{APIKey: "key1", SecretKey: "secret1"},
			production: Credentials{APIKey: "key2", SecretKey: "secret2"},
		},
		{
			name:       "russian labels with single tokens",
			input:      "t.sandbox Песочница\n\n   \nt.prod боевой прод\n",
			sandbox:    Credentials{APIKey: "t.sandbox"},
			production: Credentials{APIKey: "t.prod"},
		},
		{
			name:    "unknown labels are skipped and later lines win",
			input:   "old sandbox\nignored staging\nnew SANDBOX token\n",
			sandbox: Credentials{APIKey: "new"},
		},
		{
			name:  "sandbox required",
			input: "key:secret production\n",
			code:  errors.ErrCodeCredentialsMissing,
		},
		{
			name:  "token without label",
			input: "lonely\n",
			code:  errors.ErrCodeCredentialsMissing,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tokens, err := ParseLegacyConf(strings.NewReader(tc.input))
			if tc.code != 0 {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, tc.code))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.sandbox, tokens.Sandbox)
			assert.Equal(t, tc.production, tokens.Production)
		})
	}
}
