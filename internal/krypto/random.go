package krypto

import "crypto/rand"

// genRandomBytes returns n bytes from the CSPRNG.
func genRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}
