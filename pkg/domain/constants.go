package domain

// Reserved value keys written by the engine and bundled controllers.
const (
	// KeyAbandoned is set when the user abandons the journey.
	KeyAbandoned = "abandoned"

	// KeyEncrypted holds the ciphertext of an encrypted state envelope.
	KeyEncrypted = "__encrypted__"
)
