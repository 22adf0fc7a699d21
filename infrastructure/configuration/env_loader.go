package configuration

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"strings"

	"blog-social/infrastructure/logger"
)

// envFiles are read before the viper config so their values reach AutomaticEnv.
var envFiles = []string{"config.env", ".env"}

// LoadEnvFromFile exports KEY=VALUE pairs from dotenv files without overriding
// variables already present in the process. Missing files are skipped.
// It returns the files that were read.
func LoadEnvFromFile(paths ...string) []string {
	loaded := make([]string, 0, len(paths))
	for _, p := range paths {
		n, err := loadEnvFile(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			logger.GetLogger().WithField("file", p).WithField("error", err).Warn("Error reading environment file")
			continue
		}
		loaded = append(loaded, p)
		logger.GetLogger().WithField("file", p).WithField("keys", n).Info("Environment file loaded")
	}
	return loaded
}

func loadEnvFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	set := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, val, ok := parseEnvLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return set, err
		}
		set++
	}
	return set, scanner.Err()
}

// parseEnvLine accepts `KEY=VALUE`, an optional `export ` prefix, single or
// double quoted values and ` #` comments after unquoted values.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, val, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	val = strings.TrimSpace(val)
	if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') {
		if end := strings.IndexByte(val[1:], val[0]); end >= 0 {
			quoted := val[1 : end+1]
			if val[0] == '"' {
				quoted = strings.ReplaceAll(quoted, `\n`, "\n")
			}
			return key, quoted, true
		}
	}
	if i := strings.Index(val, " #"); i >= 0 {
		val = strings.TrimSpace(val[:i])
	}
	return key, val, true
}
