package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/avolkovs/imgboard/internal/flagx"
	"github.com/avolkovs/imgboard/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON
// configuration files. It uses timex.Duration for interval fields so JSON
// can specify them either as strings such as "15m" or as integer
// nanoseconds. After unmarshalling, its fields are copied into the runtime
// Config.
type JsonConfig struct {
	DatabaseDSN        string         `json:"database_dsn"`
	UserNameRegex      string         `json:"user_name_regex"`
	PasswordRegex      string         `json:"password_regex"`
	DefaultUserRank    string         `json:"default_user_rank"`
	UserRanks          []string       `json:"user_ranks"`
	DefaultAvatarStyle string         `json:"default_avatar_style"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	AvatarURLTTL       timex.Duration `json:"avatar_url_ttl"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags; if
// neither is set, no file is loaded. If the file cannot be read or contains
// invalid JSON, the function panics: a misconfigured deployment should fail
// loudly at startup.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.UserNameRegex = c.UserNameRegex
	config.PasswordRegex = c.PasswordRegex
	config.DefaultUserRank = c.DefaultUserRank
	config.UserRanks = c.UserRanks
	config.DefaultAvatarStyle = c.DefaultAvatarStyle
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.AvatarURLTTL = time.Duration(c.AvatarURLTTL.Duration)
}
