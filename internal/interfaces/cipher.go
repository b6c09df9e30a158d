package interfaces

// FieldCipher encrypts, decrypts, and masks individual field values during
// export.
type FieldCipher interface {
	// Encrypt returns the encrypted wire form of a field value.
	Encrypt(plaintext string) (string, error)

	// Decrypt reverses Encrypt. Values not produced by Encrypt are rejected.
	Decrypt(ciphertext string) (string, error)

	// Mask returns a stable one-way masked form of a field value. Equal
	// inputs produce equal masks.
	Mask(value string) string
}
