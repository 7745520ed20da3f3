package common

// Version is set at build time with -ldflags "-X github.com/ruteri/fincrypt/common.Version=...".
var Version = "dev"

const PackageName = "github.com/ruteri/fincrypt"
