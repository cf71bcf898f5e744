package s3store

import (
	"errors"
	"fmt"
	"os"

	"filippo.io/age"
)

// The recipients and identities files are standard age key files. The
// permissions check mirrors what ssh does for private keys.

func loadRecipients(recipientsFile string) ([]age.Recipient, error) {
	if recipientsFile == "" {
		return nil, nil
	}

	f, err := os.Open(recipientsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return age.ParseRecipients(f)
}

func loadIdentities(identitiesFile string) ([]age.Identity, error) {
	if identitiesFile == "" {
		return nil, nil
	}

	// check the file permissions
	info, err := os.Stat(identitiesFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	perms := info.Mode()
	if perms&0077 != 0 {
		return nil, &ErrPermissionsTooOpen{
			msg: fmt.Sprintf("Permissions on identities file are too open: %#o", perms),
		}
	}

	f, err := os.Open(identitiesFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return age.ParseIdentities(f)
}
