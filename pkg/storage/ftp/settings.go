package ftp

import "time"

// Settings configures every session a Provider dials. Loading them from a
// file or the environment is the host's concern; the zero value gives an
// anonymous, passive, verifying client.
type Settings struct {
	// Username and Password authenticate every session. An empty
	// Username logs in as "anonymous".
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`

	// ActiveMode requests active-mode data transfers. Transfers are
	// always passive; enabling this is reported as an error when the
	// provider is built rather than being silently ignored.
	ActiveMode bool `yaml:"active_mode" json:"active_mode"`

	// ConnectTimeout bounds the TCP dial and greeting exchange.
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`

	// DisableEPSV falls back to the older PASV command on servers whose
	// EPSV support is broken.
	DisableEPSV bool `yaml:"disable_epsv" json:"disable_epsv"`

	// InsecureSkipVerify disables certificate verification on ftps
	// endpoints.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
}

const (
	defaultConnectTimeout = 30 * time.Second

	anonymousUser     = "anonymous"
	anonymousPassword = "anonymous"
)

func (s Settings) user() string {
	if s.Username == "" {
		return anonymousUser
	}
	return s.Username
}

func (s Settings) password() string {
	if s.Username == "" && s.Password == "" {
		return anonymousPassword
	}
	return s.Password
}

func (s Settings) connectTimeout() time.Duration {
	if s.ConnectTimeout <= 0 {
		return defaultConnectTimeout
	}
	return s.ConnectTimeout
}
