//go:build !linux && !darwin

package bind

// ToInterface is unimplemented on platforms other than Linux and Darwin.
// It must fail rather than silently behave as a no-op: binding is the
// proxy's entire value proposition, and a silent fall-through would let
// traffic leak out the default route.
func ToInterface(_ int, _ string, _ Family) error {
	return ErrUnsupportedPlatform
}
