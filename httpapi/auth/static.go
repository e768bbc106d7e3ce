package auth

// Credential is one entry in a static access-key table: the secret used to
// verify signatures and the account the key authenticates as.
type Credential struct {
	SecretKey string
	AccountID string
}

// StaticCredentials is a fixed-table CredentialsProvider keyed by access key
// id, suitable for single-tenant deployments and tests. Production
// deployments needing dynamic credential lookup implement
// CredentialsProvider against their own identity store; this package only
// specifies the interface.
type StaticCredentials map[string]Credential

func (s StaticCredentials) SecretKey(accessKeyID string) (string, string, bool) {
	entry, ok := s[accessKeyID]
	if !ok {
		return "", "", false
	}
	return entry.SecretKey, entry.AccountID, true
}
