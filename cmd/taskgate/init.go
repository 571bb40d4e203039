// ABOUTME: Interactive 'taskgate init' command that writes a YAML config file
// ABOUTME: Generates a random signing secret unless the user opts for per-process keys

package main

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389/taskgate/internal/config"
)

// initAnswers are the values collected by runInit.
type initAnswers struct {
	HTTPAddr  string
	GRPCAddr  string
	Driver    string
	DBPath    string
	JWTSecret string
	TokenTTL  string
	LogLevel  string
	LogFormat string
	Metrics   bool
}

// generateSecret returns a random base64 secret well above config.MinSecretLength.
func generateSecret() (string, error) {
	secretBytes := make([]byte, 48)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generating JWT secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(secretBytes), nil
}

// renderConfig produces the YAML written by runInit.
func renderConfig(a initAnswers) string {
	var cfg strings.Builder
	cfg.WriteString("# taskgate configuration\n")
	cfg.WriteString("# Generated by taskgate init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: %q\n", a.HTTPAddr))
	if a.GRPCAddr != "" {
		cfg.WriteString(fmt.Sprintf("  grpc_addr: %q\n", a.GRPCAddr))
	}
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  driver: %q\n", a.Driver))
	cfg.WriteString(fmt.Sprintf("  path: %q\n", a.DBPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	if a.JWTSecret != "" {
		cfg.WriteString(fmt.Sprintf("  jwt_secret: %q\n", a.JWTSecret))
	} else {
		cfg.WriteString("  # no jwt_secret: a random key is generated on every start\n")
	}
	cfg.WriteString(fmt.Sprintf("  token_ttl: %q\n", a.TokenTTL))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: %q\n", a.LogLevel))
	cfg.WriteString(fmt.Sprintf("  format: %q\n", a.LogFormat))
	cfg.WriteString("\n")

	cfg.WriteString("metrics:\n")
	cfg.WriteString(fmt.Sprintf("  enabled: %t\n", a.Metrics))
	cfg.WriteString(fmt.Sprintf("  path: %q\n", config.DefaultMetricsPath))

	return cfg.String()
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func runInit(in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "taskgate configuration setup")
	fmt.Fprintln(out, "============================")
	fmt.Fprintln(out)

	defaultDBPath := filepath.Join(getDataPath(), "taskgate.db")

	outputFile := prompt(reader, out, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		if !isYes(prompt(reader, out, "File exists. Overwrite?", "no")) {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	var a initAnswers

	fmt.Fprintln(out, "\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, out, "HTTP address", "localhost:8080")
	a.GRPCAddr = prompt(reader, out, "gRPC health address (empty to disable)", "")

	fmt.Fprintln(out, "\n--- Database Configuration ---")
	a.Driver = prompt(reader, out, "SQLite driver (sqlite/sqlite3)", config.DefaultDriver)
	a.DBPath = prompt(reader, out, "SQLite database path", defaultDBPath)

	fmt.Fprintln(out, "\n--- Auth Configuration ---")
	if isYes(prompt(reader, out, "Generate a persistent signing secret?", "yes")) {
		secret, err := generateSecret()
		if err != nil {
			return err
		}
		a.JWTSecret = secret
	}
	a.TokenTTL = prompt(reader, out, "Token lifetime", config.DefaultTokenTTL.String())

	fmt.Fprintln(out, "\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, out, "Log level (debug/info/warn/error)", config.DefaultLogLevel)
	a.LogFormat = prompt(reader, out, "Log format (text/json)", config.DefaultLogFormat)

	a.Metrics = isYes(prompt(reader, out, "Enable Prometheus metrics?", "no"))

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	// Secrets may be inside, so keep it private
	if err := os.WriteFile(outputFile, []byte(renderConfig(a)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	// Refuse to leave behind a file serve would reject.
	if _, err := config.Load(outputFile); err != nil {
		_ = os.Remove(outputFile)
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	dataDir := filepath.Dir(a.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Fprintf(out, "\nConfig written to %s\n", outputFile)
	fmt.Fprintf(out, "Data directory: %s\n", dataDir)
	fmt.Fprintln(out, "\nTo start the server:")
	fmt.Fprintln(out, "  taskgate serve")

	return nil
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		// On EOF or error, return default
		fmt.Fprintln(out)
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
