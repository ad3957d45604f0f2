package cli

import "github.com/joho/godotenv"

// LoadEnvFile loads a .env file for local use. A missing file is not an
// error; variables already set in the environment win.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}
