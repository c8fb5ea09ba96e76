package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/avolkovs/imgboard/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-n string   user name validation regex
//	-w string   password validation regex
//	-k string   default user rank
//	-r string   comma-separated ordered rank list (lowest to highest)
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-t int      presigned avatar URL validity, minutes
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with flags owned by other
// components (e.g. the -c/-config flags of the JSON loader).
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-n", "-w", "-k", "-r", "-u", "-p", "-b", "-g", "-e", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.UserNameRegex, "n", config.UserNameRegex, "user name validation regex")
	fs.StringVar(&config.PasswordRegex, "w", config.PasswordRegex, "password validation regex")
	fs.StringVar(&config.DefaultUserRank, "k", config.DefaultUserRank, "default user rank")

	ranks := fs.String("r", strings.Join(config.UserRanks, ","), "ordered rank list, comma-separated")
	avatarURLTTL := fs.Int("t", int(config.AvatarURLTTL.Minutes()), "avatar URL validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.UserRanks = strings.Split(*ranks, ",")
	config.AvatarURLTTL = time.Duration(*avatarURLTTL) * time.Minute
}
