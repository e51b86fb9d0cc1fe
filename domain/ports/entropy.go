package ports

// EntropySource draws cryptographically random 32-bit values.
// Implementations are treated as never failing.
type EntropySource interface {
	Uint32() uint32
}
