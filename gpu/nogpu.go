//go:build nogpu

package gpu

// Built with nogpu: no opener is registered and glasspane renders on the CPU.
