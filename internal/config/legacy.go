package config

import (
	"bufio"
	"io"
	"strings"

	"github.com/rxtech-lab/candle-trader/pkg/errors"
)

// Labels recognised in the legacy conf file, matched case-insensitively as substrings.
var (
	sandboxLabels    = []string{"sandbox", "песочница"}
	productionLabels = []string{"prod", "прод"}
)

// LegacyTokens are the credentials read from a legacy conf file.
type LegacyTokens struct {
	Sandbox    Credentials
	Production Credentials
}

// ParseLegacyConf reads lines of the form
//
//	<token> <label>
//
// where the label names the environment, e.g. "sandbox" or "prod". A token may
// be key:secret. Blank lines and lines with an unknown label are skipped; a
// later line for the same environment wins. The sandbox token is required.
func ParseLegacyConf(r io.Reader) (LegacyTokens, error) {
	var tokens LegacyTokens

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		token := fields[0]
		label := strings.ToLower(strings.Join(fields[1:], " "))

		switch {
		case containsAny(label, sandboxLabels):
			tokens.Sandbox = parseToken(token)
		case containsAny(label, productionLabels):
			tokens.Production = parseToken(token)
		}
	}

	if err := scanner.Err(); err != nil {
		return LegacyTokens{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read conf file", err)
	}

	if tokens.Sandbox.IsZero() {
		return LegacyTokens{}, errors.New(errors.ErrCodeCredentialsMissing,
			"sandbox token not found: add a line with your token followed by the word sandbox")
	}

	return tokens, nil
}

func parseToken(token string) Credentials {
	key, secret, _ := strings.Cut(token, ":")

	return Credentials{APIKey: key, SecretKey: secret}
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}
