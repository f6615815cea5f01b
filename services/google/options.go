// Package googlesvc builds client options for Google APIs.
package googlesvc

import (
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/specedu/caseboard/core"
)

// Scopes needed by the table and file backends.
const (
	ScopeSpreadsheets = "https://www.googleapis.com/auth/spreadsheets"
	ScopeDrive        = "https://www.googleapis.com/auth/drive"
)

var errNoCredentials = errors.New("no google credentials configured (storage.credentialsJSON or storage.credentialsFile)")

// ClientOptions returns the service account credentials of conf.
// Inline JSON credentials take precedence over a key file.
func ClientOptions(conf *core.Config, scopes ...string) ([]option.ClientOption, error) {
	opts := []option.ClientOption{option.WithScopes(scopes...)}
	switch {
	case conf.Storage.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(conf.Storage.CredentialsJSON)))
	case conf.Storage.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(conf.Storage.CredentialsFile))
	default:
		return nil, errNoCredentials
	}
	return opts, nil
}
