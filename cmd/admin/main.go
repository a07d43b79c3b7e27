package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/tendant/admin-columns/pkg/admincolumns"
	"github.com/tendant/admin-columns/pkg/admincolumns/config"
)

const usage = `Admin Columns CLI

A small operator tool for column preferences. It talks to the option store
directly and can mint JWTs for the HTTP API.

USAGE:
  admin <command> [options]

COMMANDS:
  types             List manageable content types
  columns <type>    Show the column catalog of a content type with visibility
  show <type>       Print the stored preference map of a content type
  token             Issue a JWT for the HTTP API

ENVIRONMENT VARIABLES:
  STORE_URL         memory, postgres://..., sqlite:///path or s3://bucket (default: memory)
  DB_SCHEMA         PostgreSQL schema name (default: admin_columns)
  CATALOG_FILE      Content type registry file (default: stock post/page/media)
  JWT_SECRET        HS256 secret shared with the server (required for token)

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  admin types
  admin columns post
  admin show post --json
  admin token --sub=alice --role=administrator --ttl=1h

OPTIONS (for token):
  --sub=<id>          Subject claim (required)
  --sid=<id>          Session id (default: random uuid)
  --role=<role>       Role claim, "administrator" grants access
  --caps=<a,b>        Capability claims, "manage_options" grants access
  --ttl=<duration>    Token lifetime (default: 12h)

OPTIONS (all):
  --json              Output as JSON
`

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage)
		os.Exit(0)
	}

	args, flags := parseArgs(os.Args[2:])
	_, useJSON := flags["json"]

	if command == "token" {
		handleToken(flags)
		return
	}

	cfg, err := config.Load(
		config.WithStoreURL(getEnv("STORE_URL", "memory")),
		config.WithDatabaseSchema(getEnv("DB_SCHEMA", "admin_columns")),
		config.WithCatalogFile(os.Getenv("CATALOG_FILE")),
		config.WithEventLogging(false),
	)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	components, err := cfg.BuildService(ctx)
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}
	defer components.Close()

	switch command {
	case "types":
		handleTypes(ctx, components, useJSON)
	case "columns":
		handleColumns(ctx, components, requireType(args), useJSON)
	case "show":
		handleShow(ctx, components, requireType(args), useJSON)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

// operator acts with administrator capability; the CLI has no session
var operator = admincolumns.Caller{SessionID: "cli", IsAdmin: true}

func handleTypes(ctx context.Context, components *config.Components, useJSON bool) {
	infos, err := components.Service.ContentTypes(ctx, operator)
	if err != nil {
		log.Fatalf("Failed to list content types: %v", err)
	}

	if useJSON {
		printJSON(infos)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tLABEL\n")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\n", info.Name, info.Label)
	}
	w.Flush()
}

func handleColumns(ctx context.Context, components *config.Components, contentType admincolumns.ContentType, useJSON bool) {
	catalog, err := components.Service.Resolve(ctx, operator, contentType)
	if err != nil {
		log.Fatalf("Failed to resolve columns: %v", err)
	}
	prefs, err := components.Service.Load(ctx, contentType)
	if err != nil {
		log.Fatalf("Failed to load preferences: %v", err)
	}

	display := admincolumns.DisplayColumns(catalog, prefs)
	if useJSON {
		printJSON(display)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KEY\tLABEL\tVISIBLE\n")
	for _, col := range display {
		fmt.Fprintf(w, "%s\t%s\t%t\n", col.Key, truncate(col.Label, 30), col.Checked)
	}
	w.Flush()

	fmt.Printf("\nTotal: %d\n", len(display))
}

func handleShow(ctx context.Context, components *config.Components, contentType admincolumns.ContentType, useJSON bool) {
	prefs, err := components.Service.Load(ctx, contentType)
	if err != nil {
		log.Fatalf("Failed to load preferences: %v", err)
	}

	if useJSON {
		printJSON(prefs)
		return
	}

	fmt.Printf("Option: %s\n", admincolumns.OptionName(contentType))
	if len(prefs) == 0 {
		fmt.Println("No preferences saved; every column is visible.")
		return
	}

	keys := make([]string, 0, len(prefs))
	for key := range prefs {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)
	for _, key := range keys {
		state := "visible"
		if prefs.IsHidden(admincolumns.ColumnKey(key)) {
			state = "hidden"
		}
		fmt.Printf("  %-20s: %q (%s)\n", key, prefs[admincolumns.ColumnKey(key)], state)
	}
}

func handleToken(flags map[string]string) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is required for token")
	}

	claims, err := buildClaims(flags, time.Now())
	if err != nil {
		log.Fatalf("Invalid token options: %v", err)
	}

	auth := jwtauth.New("HS256", []byte(secret), nil)
	_, tokenString, err := auth.Encode(claims)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(tokenString)
}

// buildClaims turns token flags into JWT claims
func buildClaims(flags map[string]string, now time.Time) (map[string]interface{}, error) {
	sub := flags["sub"]
	if sub == "" {
		return nil, fmt.Errorf("--sub is required")
	}

	ttl := 12 * time.Hour
	if v, ok := flags["ttl"]; ok {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid --ttl %q", v)
		}
		ttl = d
	}

	sid := flags["sid"]
	if sid == "" {
		sid = uuid.New().String()
	}

	claims := map[string]interface{}{
		"sub": sub,
		"sid": sid,
	}
	if role := flags["role"]; role != "" {
		claims["role"] = role
	}
	if caps := flags["caps"]; caps != "" {
		claims["caps"] = strings.Split(caps, ",")
	}
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	return claims, nil
}

// parseArgs splits positional arguments from --key=value flags
func parseArgs(args []string) ([]string, map[string]string) {
	var positional []string
	flags := make(map[string]string)
	for _, arg := range args {
		key, value := parseFlag(arg)
		if key == "" {
			positional = append(positional, arg)
			continue
		}
		flags[key] = value
	}
	return positional, flags
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		if key, value, ok := strings.Cut(arg, "="); ok {
			return key, value
		}
		return arg, "true"
	}
	return "", ""
}

func requireType(args []string) admincolumns.ContentType {
	if len(args) == 0 {
		log.Fatal("content type argument is required")
	}
	contentType := admincolumns.SanitizeContentType(args[0])
	if contentType == "" {
		log.Fatalf("invalid content type %q", args[0])
	}
	return contentType
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// truncate shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
