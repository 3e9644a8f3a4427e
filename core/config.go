package core

import (
	"github.com/toriiauth/torii/pkg/crypto"
)

type Config struct {
	// Secret keys the verification-token hash. A database dump alone must
	// not allow token forgery, so the secret never reaches the storage
	// layer.
	Secret string

	Storage Storage

	// Optional config
	Session        *SessionConfig // nil selects DefaultSessionConfig
	Cache          Cache
	DisableCache   bool
	PasswordHasher crypto.PasswordHandler
}
