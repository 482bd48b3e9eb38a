package config

// MountOptions holds the subset of FUSE mount options the overlay exposes.
type MountOptions struct {
	// Debug enables the kernel request/response log on the FUSE server.
	// Forced on when LogLvl is trace.
	Debug bool

	FsName string // Reported filesystem name (first field in /etc/mtab)
	Name   string // Reported filesystem subtype ("fuse.<Name>" in /etc/mtab)
}
