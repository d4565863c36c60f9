package node

import "github.com/kestrelchat/kestreld/internal/extension"

// DefaultMaxLogins is the absent-payload default for the maxlogins
// attribute: how many simultaneous sessions one account may hold.
const DefaultMaxLogins = 3

// DefaultRegistry registers the attribute kinds every node knows out of
// the box. Plugins extend this set at startup, before the directory is
// loaded or any link comes up, so that all nodes agree on the kinds in
// play for a given network.
func DefaultRegistry() *extension.Registry {
	return RegistryWithDefaults(DefaultMaxLogins)
}

// RegistryWithDefaults is DefaultRegistry with the configured maxlogins
// fallback instead of the built-in one.
func RegistryWithDefaults(maxLogins int) *extension.Registry {
	r := extension.NewRegistry()
	r.MustRegister(extension.NewTSItem("lastlogin"))
	r.MustRegister(extension.NewTSBoolItem("hidemail"))
	r.MustRegister(extension.NewTSIntItem("maxlogins", maxLogins))
	r.MustRegister(extension.NewTSStringItem("vhost"))
	return r
}
