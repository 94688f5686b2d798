package env

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var fileEnv map[string]string

// GetEnv returns the setting for key, preferring the loaded .env file over
// the process environment, then falling back to def.
func GetEnv(key, def string) string {
	if val, ok := fileEnv[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// GetEnvInt reads an integer setting, falling back to def on missing or
// unparsable values.
func GetEnvInt(key string, def int) int {
	val := GetEnv(key, "")
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

// SetupEnvFile loads the first .env file found walking up from the working
// directory. Running without one is fine (containers, CI): settings then
// come from the process environment only.
func SetupEnvFile() {
	for _, path := range []string{".env", "../../.env", "../../../.env"} {
		if loaded, err := godotenv.Read(path); err == nil {
			fileEnv = loaded
			return
		}
	}
	log.Println("no .env file found, using process environment only")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
