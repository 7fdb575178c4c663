package config

import (
	"os"
	"time"
)

// Relay configures the question relay server.
type Relay struct {
	Addr          string
	PublicDir     string
	SpreadsheetID string
	// Credentials is the service account JSON. Empty means read
	// CredentialsFile instead.
	Credentials     string
	CredentialsFile string
	PollInterval    time.Duration
	MQTTBroker      string
	MQTTTopic       string
}

func DefaultRelay() *Relay {
	r := &Relay{
		Addr:            DefaultAddr,
		PublicDir:       DefaultPublicDir,
		CredentialsFile: "credentials.json",
		PollInterval:    time.Duration(DefaultPollInterval * float64(time.Second)),
		MQTTTopic:       DefaultMQTTTopic,
	}
	if port := os.Getenv("PORT"); port != "" {
		r.Addr = ":" + port
	}
	r.Credentials = os.Getenv("GOOGLE_CREDS")
	return r
}

// CredentialsJSON returns the inline credentials or the contents of
// CredentialsFile.
func (r *Relay) CredentialsJSON() ([]byte, error) {
	if r.Credentials != "" {
		return []byte(r.Credentials), nil
	}
	return os.ReadFile(r.CredentialsFile)
}
